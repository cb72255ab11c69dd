// Package provisioner implements the provision command: per storage device
// it builds every image, then the device-level firmware package with the
// fully derived environment, and finally executes the provisioning script.
// The sequence is fail-fast since each step consumes the previous step's
// artifacts.
package provisioner
