package queue

import "testing"

func TestJobIDRoundTrip(t *testing.T) {
	cases := []int64{0, 1, 42, 1 << 40}
	for _, id := range cases {
		got, err := DecodeJobID(encodeJobID(id))
		if err != nil {
			t.Fatalf("DecodeJobID: %v", err)
		}
		if got != id {
			t.Errorf("round trip: got %d, want %d", got, id)
		}
	}
}

func TestDecodeJobIDMalformed(t *testing.T) {
	if _, err := DecodeJobID([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
