package credential

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gbatanov/zlock/eeprom"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a    []byte
		la   int
		b    []byte
		lb   int
		want bool
	}{
		{"identical", []byte{1, 2, 3}, 3, []byte{1, 2, 3}, 3, true},
		{"both empty", nil, 0, []byte{}, 0, true},
		{"prefix", []byte{1, 2, 3}, 3, []byte{1, 2}, 2, false},
		{"extension", []byte{1, 2}, 2, []byte{1, 2, 3}, 3, false},
		{"same length differs", []byte{1, 2, 3}, 3, []byte{1, 2, 4}, 3, false},
		{"first byte differs", []byte{0, 2, 3}, 3, []byte{1, 2, 3}, 3, false},
		{"length bounds the compare", []byte{1, 2, 3, 9}, 3, []byte{1, 2, 3, 8}, 3, true},
		{"zero bytes are data", []byte{0, 0}, 2, []byte{0}, 1, false},
		{"length beyond buffer", []byte{1}, 2, []byte{1, 2}, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.la, tt.b, tt.lb); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

// exhaustive over short sequences of a two-symbol alphabet
func TestEqualMatchesDefinition(t *testing.T) {
	var all [][]byte
	var gen func(prefix []byte)
	gen = func(prefix []byte) {
		all = append(all, append([]byte(nil), prefix...))
		if len(prefix) == 4 {
			return
		}
		for _, b := range []byte{0, 1} {
			gen(append(prefix, b))
		}
	}
	gen(nil)

	for _, a := range all {
		for _, b := range all {
			want := len(a) == len(b) && bytes.Equal(a, b)
			if got := Equal(a, len(a), b, len(b)); got != want {
				t.Fatalf("Equal(%v,%v) = %v, want %v", a, b, got, want)
			}
		}
	}
}

func TestNew(t *testing.T) {
	c, err := New([]byte{1, 2, 3, 4, 5, 6, 7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Len() != MaxLen {
		t.Errorf("Len = %d", c.Len())
	}
	if _, err := New(make([]byte, 8)); !errors.Is(err, ErrTooLong) {
		t.Errorf("want ErrTooLong, got %v", err)
	}
	if !c.Matches([]byte{1, 2, 3, 4, 5, 6, 7}) {
		t.Error("credential should match its own bytes")
	}
	if c.Matches([]byte{1, 2, 3, 4, 5, 6}) {
		t.Error("prefix must not match")
	}
	if s := c.String(); s != "credential(len=7)" {
		t.Errorf("String() = %q", s)
	}
}

func TestMatchesIsRepeatable(t *testing.T) {
	c, _ := New([]byte{4, 2})
	for i := 0; i < 3; i++ {
		if !c.Matches([]byte{4, 2}) {
			t.Fatalf("match %d failed", i)
		}
	}
}

func TestLoadFirstBoot(t *testing.T) {
	st, err := Load(eeprom.NewMemStore())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.HasCredential {
		t.Error("erased store must report no credential")
	}
}

func TestSaveLoad(t *testing.T) {
	m := eeprom.NewMemStore()
	c, _ := New([]byte{9, 8, 7})
	if err := Save(m, c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	want := []uint16{eeprom.FlagAddr, eeprom.DataAddr, eeprom.DataAddr + 1, eeprom.DataAddr + 2, eeprom.LenAddr}
	got := m.Writes()
	if len(got) != len(want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("writes = %v, want %v", got, want)
		}
	}

	st, err := Load(m)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !st.HasCredential || st.Credential.Len() != 3 || !st.Credential.Matches([]byte{9, 8, 7}) {
		t.Errorf("loaded %+v", st)
	}
}

func TestSaveShorterOverwrite(t *testing.T) {
	m := eeprom.NewMemStore()
	long, _ := New([]byte{1, 2, 3, 4, 5})
	short, _ := New([]byte{1, 2})
	if err := Save(m, long); err != nil {
		t.Fatal(err)
	}
	if err := Save(m, short); err != nil {
		t.Fatal(err)
	}
	st, err := Load(m)
	if err != nil {
		t.Fatal(err)
	}
	// stale bytes past the length are never compared
	if !st.Credential.Matches([]byte{1, 2}) || st.Credential.Matches([]byte{1, 2, 3}) {
		t.Errorf("loaded %v", st.Credential.Bytes())
	}
}

func TestPartialCommit(t *testing.T) {
	m := eeprom.NewMemStore()
	boom := errors.New("bus error")
	m.FailWrite(eeprom.DataAddr+1, boom)

	c, _ := New([]byte{5, 6, 7})
	if err := Save(m, c); !errors.Is(err, boom) {
		t.Fatalf("Save err = %v", err)
	}

	// flag is set, length still erased: the known inconsistency window
	if _, err := Load(m); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load after partial commit = %v, want ErrCorrupt", err)
	}
}

func TestLoadReadError(t *testing.T) {
	m := eeprom.NewMemStore()
	c, _ := New([]byte{1})
	if err := Save(m, c); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("nack")
	m.FailRead(eeprom.DataAddr, boom)
	if _, err := Load(m); !errors.Is(err, boom) {
		t.Errorf("Load err = %v", err)
	}
}

func TestErase(t *testing.T) {
	m := eeprom.NewMemStore()
	c, _ := New([]byte{3})
	if err := Save(m, c); err != nil {
		t.Fatal(err)
	}
	if err := Erase(m); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	st, err := Load(m)
	if err != nil || st.HasCredential {
		t.Errorf("after Erase: %+v, %v", st, err)
	}
}
