package config

// Enumerated field values accepted by the schema.
const (
	// Data loading methods
	LoadingMemmap = "memmap"
	LoadingNpy    = "npy"
	LoadingNii    = "nii"
	LoadingH5     = "h5"

	// Convolution variants
	ConvMixed      = "mixed"
	ConvSpherical  = "spherical"
	ConvSpatial    = "spatial"
	ConvSpatialVec = "spatial_vec"
	ConvSpatialSH  = "spatial_sh"

	// Loss norms
	NormL1     = "L1"
	NormL2     = "L2"
	NormCauchy = "cauchy"
)

// Default returns a configuration populated with the documented default of
// every optional field. Required fields (data.data_path, training.expname)
// are left empty and fail validation until the document provides them.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			RFName:            "dhollander",
			NormalizePerShell: true,
			NormalizeInMask:   true,
			LoadingMethod:     LoadingMemmap,
			CPUSubjectLoader:  1,
			CPUDataloader:     0,
			MaxNBatch:         10000,
			MaxNBatchVal:      10000,
		},
		Training: TrainingConfig{
			BatchSize:    32,
			BatchSizeVal: 32,
			LR:           1.7e-3,
			NEpoch:       50,
		},
		Model: ModelConfig{
			ConvName:      ConvMixed,
			IsoSpa:        true,
			FilterStart:   32,
			PatchSize:     3,
			KernelSizeSph: 5,
			KernelSizeSpa: 3,
			Depth:         5,
			NSide:         16,
			SHDegree:      8,
			Normalize:     true,
			Tissues: TissueConfig{
				WM:  true,
				GM:  true,
				CSF: true,
			},
		},
		Loss: LossConfig{
			Reconstruction: LossTerm{Norm: NormL2, Weight: 1.0},
			Equi:           defaultLossGroup(),
			Inva:           defaultLossGroup(),
		},
	}
}

func defaultLossGroup() LossGroup {
	return LossGroup{
		NonNegativity:   LossTerm{Norm: NormL2, Weight: 0.1},
		Sparsity:        LossTerm{Norm: NormCauchy},
		TotalVariation:  LossTerm{Norm: NormL2},
		GFA:             LossTerm{Norm: NormL2},
		PVE:             LossTerm{Norm: NormL2},
		RF:              LossTerm{Norm: NormL2},
		RFNonNegativity: LossTerm{Norm: NormL2},
		FODF:            LossTerm{Norm: NormL2},
	}
}
