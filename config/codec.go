package config

// Codec holds process wide codec settings.
type Codec struct {
	// byte written by Align on export
	AlignPad byte `yaml:"align_pad"`
	// triangles per BoxColi chunk when building PRIM collision hints
	TriPerChunk int `yaml:"tri_per_chunk"`
	// meshes with more vertices are stored with float32 positions
	HighResThreshold int `yaml:"high_res_threshold"`
}

func DefaultCodec() Codec {
	return Codec{
		AlignPad:         0xCD,
		TriPerChunk:      0x20,
		HighResThreshold: 10000,
	}
}

var codecConfig = DefaultCodec()

func GetCodec() Codec {
	return codecConfig
}

func SetCodec(c Codec) {
	codecConfig = c
}
