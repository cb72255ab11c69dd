// Package builder implements the build command: it assembles every image
// artifact a manifest declares into an output directory, dispatching per
// image on its build kind (plain copy, FAT filesystem, firmware package).
// Failures are collected across images so one run reports every problem.
package builder
