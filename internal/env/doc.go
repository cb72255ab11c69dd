// Package env computes the named environments consumed by the firmware
// packager and by provisioning scripts: profile resolution over ordered
// environment references, single-pass ${NAME} expansion against an explicit
// process environment, and derivation of the MASON_* variable set encoding
// image paths and partition geometry.
package env
