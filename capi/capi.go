// C ABI for the CPU count library:
//
//	size_t num_cpus_get(void);
//	size_t num_cpus_get_physical(void);
//
// Build w/:
//
//	go build -buildmode=c-shared -o libnumcpus.so ./capi
//
// which also generates libnumcpus.h.

package main

import "C"

//export num_cpus_get
func num_cpus_get() C.size_t {
	return C.size_t(logicalCount())
}

//export num_cpus_get_physical
func num_cpus_get_physical() C.size_t {
	return C.size_t(physicalCount())
}
