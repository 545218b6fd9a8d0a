package config

import "strings"

// Validate performs a pure validation pass over a configuration and returns
// every violation found; an empty result means the configuration is valid.
// It never modifies the configuration and has no side effects, so callers
// can use it as a pre-flight check without constructing anything.
func Validate(cfg *Config) []Violation {
	var v violations
	cfg.Data.validate(&v)
	cfg.Training.validate(&v)
	cfg.Model.validate(&v)
	cfg.Loss.validate(&v)
	cfg.validateConsistency(&v)
	return v.list
}

// Validate reports the first-class error form of the validation pass
func (c *Config) Validate() error {
	if vs := Validate(c); len(vs) > 0 {
		return &Error{Violations: vs}
	}
	return nil
}

func (d *DataConfig) validate(v *violations) {
	if d.DataPath == "" {
		v.add(KindSchema, "data.data_path", "required field is missing")
	}
	if d.RFName == "" {
		v.add(KindSchema, "data.rf_name", "required field is missing")
	}
	switch d.LoadingMethod {
	case LoadingMemmap, LoadingNpy, LoadingNii, LoadingH5:
	default:
		v.add(KindRange, "data.loading_method",
			"must be one of [memmap, npy, nii, h5], got '%s'", d.LoadingMethod)
	}
	if d.CPUSubjectLoader < 1 && d.CPUSubjectLoader != -1 {
		v.add(KindRange, "data.cpu_subject_loader",
			"must be at least 1, or -1 for all cores, got %d", d.CPUSubjectLoader)
	}
	if d.CPUDataloader < 0 {
		v.add(KindRange, "data.cpu_dataloader",
			"cannot be negative, got %d", d.CPUDataloader)
	}
	if d.MaxNBatch < 1 {
		v.add(KindRange, "data.max_n_batch",
			"must be at least 1, got %d", d.MaxNBatch)
	}
	if d.MaxNBatchVal < 1 {
		v.add(KindRange, "data.max_n_batch_val",
			"must be at least 1, got %d", d.MaxNBatchVal)
	}
	for i, b := range d.BvalsInput {
		if b < 0 {
			v.add(KindRange, "data.bvals_input",
				"b-value at index %d cannot be negative, got %g", i, b)
		}
	}
	for i, b := range d.BvalsOutput {
		if b < 0 {
			v.add(KindRange, "data.bvals_output",
				"b-value at index %d cannot be negative, got %g", i, b)
		}
	}
}

func (t *TrainingConfig) validate(v *violations) {
	if t.Expname == "" {
		v.add(KindSchema, "training.expname", "required field is missing")
	} else if strings.ContainsAny(t.Expname, "/\\") {
		// expname names the run directory under result/
		v.add(KindRange, "training.expname",
			"cannot contain path separators, got '%s'", t.Expname)
	}
	if t.BatchSize < 1 {
		v.add(KindRange, "training.batch_size",
			"must be at least 1, got %d", t.BatchSize)
	}
	if t.BatchSizeVal < 1 {
		v.add(KindRange, "training.batch_size_val",
			"must be at least 1, got %d", t.BatchSizeVal)
	}
	if t.LR <= 0 {
		v.add(KindRange, "training.lr",
			"must be positive, got %g", t.LR)
	}
	if t.NEpoch < 1 {
		v.add(KindRange, "training.n_epoch",
			"must be at least 1, got %d", t.NEpoch)
	}
	if t.LastEpoch < 0 {
		v.add(KindRange, "training.last_epoch",
			"cannot be negative, got %d", t.LastEpoch)
	}
	if t.FeatureIn < 0 {
		v.add(KindRange, "training.feature_in",
			"cannot be negative, got %d", t.FeatureIn)
	}
}

func (m *ModelConfig) validate(v *violations) {
	switch m.ConvName {
	case ConvMixed, ConvSpherical, ConvSpatial, ConvSpatialVec, ConvSpatialSH:
	default:
		v.add(KindRange, "model.conv_name",
			"must be one of [mixed, spherical, spatial, spatial_vec, spatial_sh], got '%s'", m.ConvName)
	}
	if m.FilterStart < 1 {
		v.add(KindRange, "model.filter_start",
			"must be at least 1, got %d", m.FilterStart)
	}
	if m.PatchSize < 1 {
		v.add(KindRange, "model.patch_size",
			"must be at least 1, got %d", m.PatchSize)
	}
	if m.KernelSizeSph < 1 {
		v.add(KindRange, "model.kernel_sizeSph",
			"must be at least 1, got %d", m.KernelSizeSph)
	}
	if m.KernelSizeSpa < 1 {
		v.add(KindRange, "model.kernel_sizeSpa",
			"must be at least 1, got %d", m.KernelSizeSpa)
	}
	if m.Depth < 1 {
		v.add(KindRange, "model.depth",
			"must be at least 1, got %d", m.Depth)
	}
	if !isPowerOfTwo(m.NSide) {
		v.add(KindRange, "model.n_side",
			"must be a power of two, got %d", m.NSide)
	}
	if m.SHDegree < 2 || m.SHDegree%2 != 0 {
		v.add(KindRange, "model.sh_degree",
			"must be an even degree of at least 2, got %d", m.SHDegree)
	}
}

func (l *LossConfig) validate(v *violations) {
	l.Reconstruction.validate("loss.reconstruction", v)
	l.Equi.validate("loss.equi", v)
	l.Inva.validate("loss.inva", v)
}

func (g *LossGroup) validate(prefix string, v *violations) {
	for _, term := range g.terms() {
		term.LossTerm.validate(prefix+"."+term.name, v)
	}
}

func (t *LossTerm) validate(path string, v *violations) {
	switch t.Norm {
	case NormL1, NormL2, NormCauchy:
	default:
		v.add(KindRange, path+".norm",
			"must be one of [L1, L2, cauchy], got '%s'", t.Norm)
	}
	if t.Weight < 0 {
		v.add(KindRange, path+".weight",
			"cannot be negative, got %g", t.Weight)
	}
	if t.Sigma != nil && *t.Sigma <= 0 {
		v.add(KindRange, path+".sigma",
			"must be positive, got %g", *t.Sigma)
	}
	if t.Norm == NormCauchy && t.Active() && t.Sigma == nil {
		v.add(KindConsistency, path+".sigma",
			"required when an active term uses the cauchy norm")
	}
}

// validateConsistency checks the invariants spanning several sections
func (c *Config) validateConsistency(v *violations) {
	t := c.Model.Tissues
	if !t.WM && !t.GM && !t.CSF {
		v.add(KindConsistency, "model.tissues",
			"at least one of wm, gm, csf must be enabled")
	}
	if c.Loss.Equi.FODF.Active() && !t.HasEquivariant() {
		v.add(KindConsistency, "loss.equi.fodf",
			"supervised fODF loss requires model.tissues.wm")
	}
	if c.Loss.Inva.FODF.Active() && !t.HasInvariant() {
		v.add(KindConsistency, "loss.inva.fodf",
			"supervised fODF loss requires model.tissues.gm or model.tissues.csf")
	}
	if (c.Loss.Equi.FODF.Active() || c.Loss.Inva.FODF.Active()) && !c.Data.HasTargetFODF() {
		v.add(KindConsistency, "data.fodf_path",
			"required when a supervised fODF loss is active")
	}
	if c.Model.UseLegacy && c.Model.UseHemisphere {
		v.add(KindConsistency, "model.use_hemisphere",
			"hemisphere sampling is not available in legacy mode")
	}
	if isPowerOfTwo(c.Model.NSide) && c.Model.Depth >= 1 && c.Model.Depth > c.Model.MaxDepth() {
		v.add(KindConsistency, "model.depth",
			"grid of n_side %d supports a depth of at most %d, got %d",
			c.Model.NSide, c.Model.MaxDepth(), c.Model.Depth)
	}
}

// namedTerm pairs a loss term with its document key for field paths
type namedTerm struct {
	name string
	*LossTerm
}

func (g *LossGroup) terms() []namedTerm {
	return []namedTerm{
		{"non_negativity", &g.NonNegativity},
		{"sparsity", &g.Sparsity},
		{"total_variation", &g.TotalVariation},
		{"gfa", &g.GFA},
		{"pve", &g.PVE},
		{"rf", &g.RF},
		{"rf_non_negativity", &g.RFNonNegativity},
		{"fodf", &g.FODF},
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
