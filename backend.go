package tapeson

import (
	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"
)

// Stage 1 is specified in terms of an abstract backend: a set of
// block-local operations a concrete implementation supplies so that the
// structural indexer, UTF-8 validator and string parser never hard-code a
// particular instruction set. simdjson's C++ original picks one of these
// per-ISA via virtual dispatch at a global level; we follow the
// replacement design from §9 of the spec instead: selection happens once,
// is a property of the parser context (or, as here, of process start-up),
// and never goes through a global mutable "active implementation" pointer.
//
// This module ships a single portable backend built from 64-bit-word SWAR
// (SIMD-within-a-register) operations, which is what every scalar Go
// build ends up running regardless of SupportedCPU()'s answer. The cpuid
// check exists so callers can make an informed choice about whether to
// route large workloads to this process at all, matching the contract
// simdjson-go's SupportedCPU exposes, and so a future wider-word backend
// (256/512-bit, behind a build tag) has a natural hook to register itself.
type backend struct {
	name string
	// blockSize is the number of bytes this backend's classify/prefixXor
	// primitives treat as one vector.
	blockSize int
}

var activeBackend = selectBackend()

// selectBackend names the active backend after the host's detected
// feature set. Every build runs the identical 64-bit-word SWAR
// primitives -- there is no wide-SIMD implementation to switch to yet --
// so SupportedCPU's answer changes only activeBackend.name, not any
// parsing behavior. That name is what BackendName() reports to callers
// deciding whether this host is a candidate for a future wide backend,
// and it's asserted directly in backend_test.go so the detection result
// is no longer discarded.
func selectBackend() backend {
	if SupportedCPU() {
		return backend{name: "portable-swar64+avx", blockSize: blockSize}
	}
	return backend{name: "portable-swar64", blockSize: blockSize}
}

// SupportedCPU reports whether the host CPU exposes the feature set a
// wide-SIMD backend would need. The portable backend this module ships
// does not require any of this -- it runs correctly (only slower) on
// every host -- so this is informational: a caller deciding whether a
// fleet of machines is worth the complexity of building a wider backend
// for can use it to survey the fleet first.
//
// Two independent feature-detection libraries are consulted and must
// agree: klauspost/cpuid/v2 for the primary answer, golang.org/x/sys/cpu
// as a cross-check (the way nnnkkk7/go-simdcsv pairs the two) against a
// cpuid/v2 regression misreporting a feature this process actually lacks.
func SupportedCPU() bool {
	primary := cpuid.CPU.Supports(cpuid.AVX2, cpuid.AVX512F)
	crossCheck := cpu.X86.HasAVX2 && cpu.X86.HasAVX512F
	return primary && crossCheck
}

// BackendName returns the name of the backend chosen for this process.
func BackendName() string {
	return activeBackend.name
}
