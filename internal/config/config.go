package config

import (
	"math"

	"gopkg.in/yaml.v3"
)

// Config represents the complete training configuration
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Training TrainingConfig `yaml:"training"`
	Model    ModelConfig    `yaml:"model"`
	Loss     LossConfig     `yaml:"loss"`
}

// DataConfig contains dataset paths and signal normalization options
type DataConfig struct {
	DataPath           string    `yaml:"data_path"`
	DataPathValidation *string   `yaml:"data_path_validation"`
	RFName             string    `yaml:"rf_name"`
	GradientMask       *string   `yaml:"gradient_mask"`
	FODFPath           *string   `yaml:"fodf_path"`
	NormalizePerShell  bool      `yaml:"normalize_per_shell"`
	NormalizeInMask    bool      `yaml:"normalize_in_mask"`
	LoadingMethod      string    `yaml:"loading_method"`
	CPUSubjectLoader   int       `yaml:"cpu_subject_loader"`
	CPUDataloader      int       `yaml:"cpu_dataloader"`
	MaxNBatch          int       `yaml:"max_n_batch"`
	MaxNBatchVal       int       `yaml:"max_n_batch_val"`
	BvalsInput         []float64 `yaml:"bvals_input"`  // written back by the trainer
	BvalsOutput        []float64 `yaml:"bvals_output"` // written back by the trainer
}

// TrainingConfig contains optimization and checkpoint parameters
type TrainingConfig struct {
	Expname          string  `yaml:"expname"`
	BatchSize        int     `yaml:"batch_size"`
	BatchSizeVal     int     `yaml:"batch_size_val"`
	LR               float64 `yaml:"lr"`
	NEpoch           int     `yaml:"n_epoch"`
	OnlySaveLast     bool    `yaml:"only_save_last"`
	LoadState        *string `yaml:"load_state"`
	ComputeExtraLoss bool    `yaml:"compute_extra_loss"`
	LastEpoch        int     `yaml:"last_epoch"` // written back by the trainer
	FeatureIn        int     `yaml:"feature_in"` // written back by the trainer
}

// ModelConfig contains network architecture parameters
type ModelConfig struct {
	ConvName      string       `yaml:"conv_name"`
	IsoSpa        bool         `yaml:"isoSpa"`
	Concatenate   bool         `yaml:"concatenate"`
	FilterStart   int          `yaml:"filter_start"`
	PatchSize     int          `yaml:"patch_size"`
	KernelSizeSph int          `yaml:"kernel_sizeSph"`
	KernelSizeSpa int          `yaml:"kernel_sizeSpa"`
	Depth         int          `yaml:"depth"`
	NSide         int          `yaml:"n_side"`
	SHDegree      int          `yaml:"sh_degree"`
	Normalize     bool         `yaml:"normalize"`
	UseHemisphere bool         `yaml:"use_hemisphere"`
	UseLegacy     bool         `yaml:"use_legacy"`
	TrainRF       bool         `yaml:"train_rf"`
	Tissues       TissueConfig `yaml:"tissues"`
}

// TissueConfig selects the tissue compartments the model deconvolves
type TissueConfig struct {
	WM  bool `yaml:"wm"`
	GM  bool `yaml:"gm"`
	CSF bool `yaml:"csf"`
}

// LossConfig contains the weighted loss taxonomy. The equivariant group acts
// on the white-matter fODF, the invariant group on the isotropic (GM/CSF)
// compartments, and the reconstruction term on the predicted signal intensity.
type LossConfig struct {
	Reconstruction LossTerm  `yaml:"reconstruction"`
	Equi           LossGroup `yaml:"equi"`
	Inva           LossGroup `yaml:"inva"`
}

// LossGroup is the fixed set of regularization terms applied to one
// deconvolution branch
type LossGroup struct {
	NonNegativity   LossTerm `yaml:"non_negativity"`
	Sparsity        LossTerm `yaml:"sparsity"`
	TotalVariation  LossTerm `yaml:"total_variation"`
	GFA             LossTerm `yaml:"gfa"`
	PVE             LossTerm `yaml:"pve"`
	RF              LossTerm `yaml:"rf"`
	RFNonNegativity LossTerm `yaml:"rf_non_negativity"`
	FODF            LossTerm `yaml:"fodf"`
}

// LossTerm is a single weighted penalty. Sigma is the scale of the Cauchy
// norm and is ignored by L1/L2.
type LossTerm struct {
	Norm   string   `yaml:"norm"`
	Weight float64  `yaml:"weight"`
	Sigma  *float64 `yaml:"sigma,omitempty"`
}

// Active reports whether the term contributes to the training objective
func (t *LossTerm) Active() bool {
	return t.Weight > 0
}

// HasValidation reports whether a validation dataset is configured
func (d *DataConfig) HasValidation() bool {
	return d.DataPathValidation != nil && *d.DataPathValidation != ""
}

// HasTargetFODF reports whether ground-truth fODFs are available for
// supervised reconstruction losses
func (d *DataConfig) HasTargetFODF() bool {
	return d.FODFPath != nil && *d.FODFPath != ""
}

// HasResume reports whether training resumes from a saved model state
func (t *TrainingConfig) HasResume() bool {
	return t.LoadState != nil && *t.LoadState != ""
}

// HasEquivariant reports whether the anisotropic (WM) branch is enabled
func (t *TissueConfig) HasEquivariant() bool {
	return t.WM
}

// HasInvariant reports whether any isotropic (GM/CSF) branch is enabled
func (t *TissueConfig) HasInvariant() bool {
	return t.GM || t.CSF
}

// IsotropicResponseNames returns the response function file prefixes of the
// enabled isotropic tissues, in the order the trainer loads them
func (t *TissueConfig) IsotropicResponseNames() []string {
	var names []string
	if t.GM {
		names = append(names, "gm_response")
	}
	if t.CSF {
		names = append(names, "csf_response")
	}
	return names
}

// IsotropicFODFNames returns the target fODF file prefixes of the enabled
// isotropic tissues
func (t *TissueConfig) IsotropicFODFNames() []string {
	var names []string
	if t.GM {
		names = append(names, "fodf_gm")
	}
	if t.CSF {
		names = append(names, "fodf_csf")
	}
	return names
}

// NumSHCoefficients returns the size of the even spherical harmonic basis at
// the configured truncation degree
func (m *ModelConfig) NumSHCoefficients() int {
	return (m.SHDegree + 1) * (m.SHDegree/2 + 1)
}

// NumZonalSHCoefficients returns the number of zonal harmonic coefficients
// used to represent a response function
func (m *ModelConfig) NumZonalSHCoefficients() int {
	return m.SHDegree/2 + 1
}

// NumVertices returns the number of sampling points of the HEALPix grid at
// the configured resolution
func (m *ModelConfig) NumVertices() int {
	n := 12 * m.NSide * m.NSide
	if m.UseHemisphere {
		n /= 2
	}
	return n
}

// MaxDepth returns the deepest encoder the HEALPix grid supports, i.e. the
// number of times the grid can be pooled before dropping below n_side 1
func (m *ModelConfig) MaxDepth() int {
	if m.NSide < 1 {
		return 0
	}
	return int(math.Log2(float64(m.NSide))) + 1
}

// Resolved serializes the effective configuration back to YAML. The trainer
// writes this document into the run directory after each epoch so a run can
// be resumed from exactly the parameters it was started with.
func (c *Config) Resolved() ([]byte, error) {
	return yaml.Marshal(c)
}
