package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/hwvideodecoder"
)

func TestWritePictureCropsStride(t *testing.T) {
	pic := &hwvideodecoder.Picture{
		DisplayWidth:  2,
		DisplayHeight: 2,
		LineSize:      [4]int{4, 2, 2, 0},
		Data: [4][]byte{
			{1, 2, 0, 0, 3, 4, 0, 0},
			{5, 0},
			{6, 0},
		},
	}
	var buf bytes.Buffer
	n, err := writePicture(&buf, pic)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, buf.Bytes())
}

func TestTrackAnnexB(t *testing.T) {
	track := &videoTrack{
		Timescale:     90000,
		ParameterSets: []byte{0, 0, 0, 1, 0x67, 0, 0, 0, 1, 0x68},
	}
	s := sample{Data: []byte{0, 0, 0, 2, 0x65, 0xaa}, DTS: 90000, PTS: 180000, Sync: true}

	b, err := track.annexB(s, false)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 1, 0x67, 0, 0, 0, 1, 0x68, 0, 0, 0, 1, 0x65, 0xaa}, b)

	s.Sync = false
	b, err = track.annexB(s, false)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 1, 0x65, 0xaa}, b)

	require.Equal(t, float64(1e6), track.toMicroseconds(s.DTS))
	require.Equal(t, float64(2e6), track.toMicroseconds(s.PTS))

	_, err = track.annexB(sample{Data: []byte{0, 0, 0, 9, 1}}, false)
	require.Error(t, err)
}
