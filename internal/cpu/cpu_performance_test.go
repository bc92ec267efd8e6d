package cpu

import (
	"testing"
)

// BenchmarkStep benchmarks instruction dispatch on short loops
func BenchmarkStep(b *testing.B) {
	programs := []struct {
		name    string
		program []uint8
	}{
		{"NOP", []uint8{0xEA, 0x4C, 0x00, 0x80}},
		{"Register Transfers", []uint8{0xAA, 0x8A, 0xA8, 0x98, 0x4C, 0x00, 0x80}},
		{"Arithmetic", []uint8{0x69, 0x01, 0xE9, 0x01, 0x4C, 0x00, 0x80}},
		{"Indexed Memory", []uint8{0xBD, 0x00, 0x02, 0x9D, 0x00, 0x03, 0xE8, 0x4C, 0x00, 0x80}},
	}

	for _, p := range programs {
		b.Run(p.name, func(b *testing.B) {
			helper := NewCPUTestHelper()
			helper.SetupResetVector(0x8000)
			helper.LoadProgram(0x8000, p.program...)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				helper.CPU.Step()
			}

			b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "instructions/sec")
		})
	}
}

func BenchmarkDisassemble(b *testing.B) {
	mem := NewMockMemory()
	for i := 0; i < 0x100; i++ {
		mem.SetBytes(0x8000+uint16(i), uint8(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Disassemble(0x8000, 32, mem.Peek)
	}
}
