package ext2

import "testing"

func TestAlignUp(t *testing.T) {
	cases := []struct{ n, k, want int }{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 4, 8},
		{13, 8, 16},
	}
	for _, c := range cases {
		if got := alignUp(c.n, c.k); got != c.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", c.n, c.k, got, c.want)
		}
	}
}

func TestLEReadWriteRoundTrip(t *testing.T) {
	b := make([]byte, 8)
	putLE16(b, 0, 0xABCD)
	putLE32(b, 4, 0xDEADBEEF)

	if got := le16(b, 0); got != 0xABCD {
		t.Errorf("le16 = %#x, want %#x", got, 0xABCD)
	}
	if got := le32(b, 4); got != 0xDEADBEEF {
		t.Errorf("le32 = %#x, want %#x", got, 0xDEADBEEF)
	}
}

func TestReadWriteString(t *testing.T) {
	b := make([]byte, 16)
	writeString(b, "volume")
	if got := readString(b); got != "volume" {
		t.Errorf("readString = %q, want %q", got, "volume")
	}

	// writing a value longer than the field must not panic, and must truncate.
	b2 := make([]byte, 4)
	writeString(b2, "toolong")
	if got := readString(b2); got != "tool" {
		t.Errorf("readString after truncating write = %q, want %q", got, "tool")
	}
}
