package pagination

import "testing"

func TestNewClamps(t *testing.T) {
	p := New(0, 1000)
	if p.Page != 1 || p.Limit != MaxLimit || p.Offset != 0 {
		t.Fatalf("unexpected params: %+v", p)
	}

	p = New(3, 0)
	if p.Limit != DefaultLimit || p.Offset != 2*DefaultLimit {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestGetMeta(t *testing.T) {
	m := GetMeta(New(2, 10), 25)
	if m.TotalPages != 3 || !m.HasNext || !m.HasPrev {
		t.Fatalf("unexpected meta: %+v", m)
	}

	m = GetMeta(New(1, 10), 0)
	if m.TotalPages != 0 || m.HasNext || m.HasPrev {
		t.Fatalf("unexpected empty meta: %+v", m)
	}
}
