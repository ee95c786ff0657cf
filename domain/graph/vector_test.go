package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVec3(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float64
		wantErr bool
	}{
		{name: "origin", x: 0, y: 0, z: 0},
		{name: "positive", x: 10.5, y: 20.25, z: 30},
		{name: "negative", x: -10, y: -20, z: -30},
		{name: "NaN x coordinate", x: math.NaN(), wantErr: true},
		{name: "infinite z coordinate", z: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewVec3(tt.x, tt.y, tt.z)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid coordinates")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Vec3{X: tt.x, Y: tt.y, Z: tt.z}, v)
		})
	}
}

func TestVec3_Length(t *testing.T) {
	assert.InDelta(t, 5.0, Vec3{X: 3, Y: 4}.Length(), 1e-9)
	assert.InDelta(t, 13.0, Vec3{X: 3, Y: 4, Z: 12}.Length(), 1e-9)
	assert.Zero(t, Origin.Length())
}

func TestVec3_ScaleAndAdd(t *testing.T) {
	v := Vec3{X: 1, Y: -2, Z: 3}

	assert.Equal(t, Vec3{X: 2, Y: -4, Z: 6}, v.Scale(2))
	assert.Equal(t, Vec3{X: 2, Y: -1, Z: 4}, v.Add(Vec3{X: 1, Y: 1, Z: 1}))
}
