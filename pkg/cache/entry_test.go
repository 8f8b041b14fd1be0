package cache

import (
	"testing"
	"time"
)

func TestEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{
			name:    "expired entry",
			expires: time.Now().Add(-1 * time.Hour),
			want:    true,
		},
		{
			name:    "valid entry",
			expires: time.Now().Add(1 * time.Hour),
			want:    false,
		},
		{
			name:    "just expired",
			expires: time.Now().Add(-1 * time.Second),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{
				Expires: tt.expires,
			}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_TTL(t *testing.T) {
	expired := &Entry{Expires: time.Now().Add(-time.Minute)}
	if got := expired.TTL(); got != 0 {
		t.Errorf("TTL() of expired entry = %v, want 0", got)
	}

	valid := &Entry{Expires: time.Now().Add(time.Hour)}
	if got := valid.TTL(); got <= 59*time.Minute || got > time.Hour {
		t.Errorf("TTL() = %v, want about 1h", got)
	}
}

func TestNewEntry(t *testing.T) {
	before := time.Now()
	entry := NewEntry([]byte("payload"), 2*time.Minute)

	if string(entry.Data) != "payload" {
		t.Errorf("Data = %q, want %q", entry.Data, "payload")
	}
	if entry.CachedAt.Before(before) {
		t.Error("CachedAt should not precede creation")
	}
	if got := entry.Expires.Sub(entry.CachedAt); got != 2*time.Minute {
		t.Errorf("Expires - CachedAt = %v, want 2m", got)
	}
	if entry.Age() < 0 {
		t.Error("Age should not be negative")
	}
}
