package codecs

import (
	"testing"

	"github.com/torosent/codecbench/internal/config"
)

func TestDecompressorsMatchReference(t *testing.T) {
	suite, err := Decompressors(config.CodecConfig{})
	if err != nil {
		t.Fatalf("Decompressors() error = %v", err)
	}

	original := sampleText()
	stream := zlibStream(t, original)
	prepared, ok := suite.Prepare("a.zlib", stream)
	if !ok {
		t.Fatal("Prepare() declined a valid stream")
	}
	if prepared.RefBytes != len(stream) || prepared.Input.RawLen != len(original) {
		t.Fatalf("unexpected prepared stream %+v", prepared)
	}
	if suite.OutputLen != nil {
		t.Error("decompress mode must not report ratios")
	}

	for _, impl := range suite.Registry.All() {
		t.Run(impl.Name, func(t *testing.T) {
			// Twice, so the reusing reader goes through Reset.
			for i := 0; i < 2; i++ {
				out, err := impl.Invoke(prepared.Input)
				if err != nil {
					t.Fatalf("Invoke() error = %v", err)
				}
				if err := suite.Check(out, prepared); err != nil {
					t.Fatalf("Check() error = %v", err)
				}
			}
		})
	}
}

func TestDecompressCheckRejectsWrongOutput(t *testing.T) {
	suite, _ := Decompressors(config.CodecConfig{})
	prepared, _ := suite.Prepare("a", zlibStream(t, []byte("abcdef")))

	if err := suite.Check([]byte("abc"), prepared); err == nil {
		t.Error("expected short output to fail")
	}
	if err := suite.Check([]byte("abcdeg"), prepared); err == nil {
		t.Error("expected different bytes to fail")
	}
}

func TestPrepareDecompressDeclinesMalformed(t *testing.T) {
	suite, _ := Decompressors(config.CodecConfig{})
	if _, ok := suite.Prepare("bad", []byte{0x78}); ok {
		t.Error("expected truncated stream to be declined")
	}
}

func TestReusingInflaterAcrossStreams(t *testing.T) {
	suite, _ := Decompressors(config.CodecConfig{})
	impl, ok := suite.Registry.Lookup("zlib-klauspost-reuse")
	if !ok {
		t.Fatal("zlib-klauspost-reuse not registered")
	}

	// Each output is checked before the next call overwrites the shared buffer.
	for _, data := range [][]byte{sampleText(), []byte("a much shorter second stream"), sampleText()} {
		prepared, ok := suite.Prepare("f", zlibStream(t, data))
		if !ok {
			t.Fatal("Prepare() declined a valid stream")
		}
		out, err := impl.Invoke(prepared.Input)
		if err != nil {
			t.Fatalf("Invoke() error = %v", err)
		}
		if err := suite.Check(out, prepared); err != nil {
			t.Errorf("Check() error = %v", err)
		}
	}
}
