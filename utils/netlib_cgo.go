//go:build cgo && netlib

package utils

/*
#cgo LDFLAGS: -lopenblas -lm -lpthread
#include <cblas.h>
*/
import "C"

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	netblas "gonum.org/v1/netlib/blas/netlib"
)

// Built with -tags netlib, the gonum gemm and gemv calls of the locator
// (tangents, Newton Jacobians and gradients, gauss point mapping) go to
// OpenBLAS instead of the pure Go kernels.
func init() {
	blas64.Use(netblas.Implementation{})
	if BLASVerbose {
		fmt.Printf("BLAS: %T\n", blas64.Implementation())
	}
}
