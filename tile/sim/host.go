// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sim

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Host describes the CPU the simulation runs on.
type Host struct {
	GOOS       string
	GOARCH     string
	NumCPU     int
	MaxWorkers int
	WarpSize   int

	// Features lists the CPU features relevant to the element types the
	// kernels handle, e.g. "f16c" or "fphp".
	Features []string
}

// DetectHost returns the description of the running host.
func DetectHost() Host {
	h := Host{
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		NumCPU:     runtime.NumCPU(),
		MaxWorkers: MaxWorkers(),
		WarpSize:   WarpSize(),
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		h.Features = x86Features()
	case "arm64":
		h.Features = arm64Features()
	}
	return h
}

func x86Features() []string {
	var f []string
	add := func(ok bool, name string) {
		if ok {
			f = append(f, name)
		}
	}
	add(cpu.X86.HasSSE41, "sse4.1")
	add(cpu.X86.HasAVX, "avx")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasFMA, "fma")
	// F16C is present on every FMA-capable CPU.
	add(cpu.X86.HasAVX && cpu.X86.HasFMA, "f16c")
	add(cpu.X86.HasAVX512F, "avx512f")
	add(cpu.X86.HasAVX512BF16, "avx512bf16")
	return f
}

func arm64Features() []string {
	var f []string
	add := func(ok bool, name string) {
		if ok {
			f = append(f, name)
		}
	}
	add(cpu.ARM64.HasASIMD, "asimd")
	add(cpu.ARM64.HasFPHP, "fphp")
	add(cpu.ARM64.HasASIMDHP, "asimdhp")
	add(cpu.ARM64.HasSVE, "sve")
	add(cpu.ARM64.HasSVE2, "sve2")
	return f
}
