package logging

import (
	"strings"
	"testing"
)

func BenchmarkEscapeString(b *testing.B) {
	input := strings.Repeat("Concept \"inner radius\"\nvolume: \\ \tdimensional. ", 100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = escapeString(input)
	}
}

func BenchmarkGenerateMangleFact(b *testing.B) {
	e := AuditEvent{
		Timestamp: 1,
		EventType: AuditTermUpdate,
		Domain:    "Geometry",
		Kind:      "dimensional",
		Target:    strings.Repeat("radius of sphere ", 20),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = generateMangleFact(e)
	}
}
