package aloc

import "fmt"

type Layer uint32

const (
	LayerCollideWithAll Layer = iota
	LayerStaticCollidablesOnly
	LayerDynamicCollidablesOnly
	LayerStairs
	LayerShotOnlyCollision
	LayerDynamicTrashCollidables
	LayerKinematicCollidablesOnly
	LayerStaticCollidablesOnlyTransparent
	LayerDynamicCollidablesOnlyTransparent
	LayerKinematicCollidablesOnlyTransparent
	LayerStairsSteps
	LayerStairsSlope
	LayerHeroProxy
	LayerActorProxy
	LayerHeroVR
	LayerClip
	LayerActorRagdoll
	LayerCrowdRagdoll
	LayerLedgeAnchor
	LayerActorDynBody
	LayerHeroDynBody
	LayerItems
	LayerWeapons
	LayerCollisionVolumeHitmanOn
	LayerCollisionVolumeHitmanOff
	LayerDynamicCollidablesOnlyNoCharacter
	LayerDynamicCollidablesOnlyNoCharacterTransparent
	LayerCollideWithStaticOnly
	LayerAIVisionBlocker
	LayerAIVisionBlockerAmbientOnly
	LayerUnusedLast
)

var layerNames = [...]string{
	"COLLIDE_WITH_ALL",
	"STATIC_COLLIDABLES_ONLY",
	"DYNAMIC_COLLIDABLES_ONLY",
	"STAIRS",
	"SHOT_ONLY_COLLISION",
	"DYNAMIC_TRASH_COLLIDABLES",
	"KINEMATIC_COLLIDABLES_ONLY",
	"STATIC_COLLIDABLES_ONLY_TRANSPARENT",
	"DYNAMIC_COLLIDABLES_ONLY_TRANSPARENT",
	"KINEMATIC_COLLIDABLES_ONLY_TRANSPARENT",
	"STAIRS_STEPS",
	"STAIRS_SLOPE",
	"HERO_PROXY",
	"ACTOR_PROXY",
	"HERO_VR",
	"CLIP",
	"ACTOR_RAGDOLL",
	"CROWD_RAGDOLL",
	"LEDGE_ANCHOR",
	"ACTOR_DYN_BODY",
	"HERO_DYN_BODY",
	"ITEMS",
	"WEAPONS",
	"COLLISION_VOLUME_HITMAN_ON",
	"COLLISION_VOLUME_HITMAN_OFF",
	"DYNAMIC_COLLIDABLES_ONLY_NO_CHARACTER",
	"DYNAMIC_COLLIDABLES_ONLY_NO_CHARACTER_TRANSPARENT",
	"COLLIDE_WITH_STATIC_ONLY",
	"AI_VISION_BLOCKER",
	"AI_VISION_BLOCKER_AMBIENT_ONLY",
	"UNUSED_LAST",
}

func (l Layer) String() string {
	if int(l) < len(layerNames) {
		return layerNames[l]
	}
	return fmt.Sprintf("Layer(%d)", uint32(l))
}

func (l Layer) Valid() bool { return l <= LayerUnusedLast }
