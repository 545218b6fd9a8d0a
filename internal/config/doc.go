// Package config provides configuration loading and validation for the
// equivariant spherical deconvolution trainer. It parses the YAML training
// document (data, training, model and loss sections) into a typed Config,
// applies documented defaults, deep-merges experiment overrides and rejects
// any document violating the schema before it reaches the training engine.
package config
