//go:build amd64

package cpufeature

import "golang.org/x/sys/cpu"

func detectFeatures() Features {
	return Features{
		SSE2:   cpu.X86.HasSSE2,
		SSE41:  cpu.X86.HasSSE41,
		AVX2:   cpu.X86.HasAVX2,
		AVX512: cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW,
	}
}
