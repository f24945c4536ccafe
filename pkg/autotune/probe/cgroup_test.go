package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemoryMax(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr error
	}{
		{"536870912", 536870912, nil},
		{"max", 0, ErrUnlimited},
		{"9223372036854771712", 0, ErrUnlimited},
		{"4611686018427387904", 0, ErrUnlimited},
		{"0", 0, ErrSourceUnavailable},
		{"-5", 0, ErrSourceUnavailable},
		{"lots", 0, ErrSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseMemoryMax(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCPUMax(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr error
	}{
		{"200000 100000", 2, nil},
		{"50000 100000", 1, nil},
		{"250000 100000", 3, nil},
		{"300000", 3, nil},
		{"max 100000", 0, ErrUnlimited},
		{"max", 0, ErrUnlimited},
		{"", 0, ErrSourceUnavailable},
		{"abc 100000", 0, ErrSourceUnavailable},
		{"100000 0", 0, ErrSourceUnavailable},
		{"1 2 3", 0, ErrSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseCPUMax(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadMembership(t *testing.T) {
	fs := newFs(t, map[string]string{
		"/proc/self/cgroup": "12:memory:/docker/abc\n11:cpu,cpuacct:/docker/abc\n0::/system.slice/pg.service\nbroken line\n",
	})

	m := readMembership(fs)

	assert.Equal(t, "/system.slice/pg.service", m.unified)
	assert.Equal(t, "/docker/abc", m.controllers["memory"])
	assert.Equal(t, "/docker/abc", m.controllers["cpu"])
	assert.Equal(t, "/docker/abc", m.controllers["cpuacct"])
}

func TestReadMemTotal(t *testing.T) {
	fs := newFs(t, map[string]string{
		"/proc/meminfo": "MemTotal:       16318268 kB\nMemFree:         1000000 kB\n",
	})

	total, err := readMemTotal(fs)
	require.NoError(t, err)
	assert.Equal(t, int64(16318268*1024), total)

	_, err = readMemTotal(newFs(t, map[string]string{"/proc/meminfo": "MemFree: 1 kB\n"}))
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = readMemTotal(newFs(t, nil))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
