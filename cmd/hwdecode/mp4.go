package main

import (
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/xaionaro-go/hwvideodecoder/extradata"
)

const nalLengthSize = 4

type sample struct {
	Data []byte
	DTS  uint64
	PTS  uint64
	Sync bool
}

type videoTrack struct {
	Width     int
	Height    int
	Timescale uint32
	// ParameterSets is SPS+PPS in the Annex-B form.
	ParameterSets []byte
	Samples       []sample
}

func (t *videoTrack) toMicroseconds(ts uint64) float64 {
	return float64(ts) * 1e6 / float64(t.Timescale)
}

// annexB converts the sample into the Annex-B form, prepending the
// parameter sets to sync samples.
func (t *videoTrack) annexB(s sample, first bool) ([]byte, error) {
	var dst []byte
	if s.Sync || first {
		dst = append(dst, t.ParameterSets...)
	}
	return extradata.AVCCToAnnexB(dst, s.Data, nalLengthSize)
}

func readVideoTrack(r io.ReadSeeker) (*videoTrack, error) {
	f, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("unable to decode the MP4 file: %w", err)
	}

	if f.IsFragmented() {
		return readFragmented(f)
	}
	return readProgressive(f, r)
}

func findVideoTrak(moov *mp4.MoovBox) (*mp4.TrakBox, error) {
	if moov == nil {
		return nil, fmt.Errorf("no moov box")
	}
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak, nil
		}
	}
	return nil, fmt.Errorf("no video track")
}

func newVideoTrack(trak *mp4.TrakBox) (*videoTrack, error) {
	t := &videoTrack{Timescale: 1000}
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale != 0 {
		t.Timescale = trak.Mdia.Mdhd.Timescale
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return nil, fmt.Errorf("no sample description")
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		entry, ok := child.(*mp4.VisualSampleEntryBox)
		if !ok || entry.AvcC == nil {
			continue
		}
		t.Width, t.Height = int(entry.Width), int(entry.Height)
		t.ParameterSets = extradata.AppendAnnexB(nil, entry.AvcC.SPSnalus...)
		t.ParameterSets = extradata.AppendAnnexB(t.ParameterSets, entry.AvcC.PPSnalus...)
		return t, nil
	}
	return nil, fmt.Errorf("the video track is not H.264 (no avcC box)")
}

func readFragmented(f *mp4.File) (*videoTrack, error) {
	if f.Init == nil {
		return nil, fmt.Errorf("no init segment")
	}
	trak, err := findVideoTrak(f.Init.Moov)
	if err != nil {
		return nil, err
	}
	t, err := newVideoTrack(trak)
	if err != nil {
		return nil, err
	}

	trackID := trak.Tkhd.TrackID
	var trex *mp4.TrexBox
	if f.Init.Moov.Mvex != nil {
		for _, candidate := range f.Init.Moov.Mvex.Trexs {
			if candidate.TrackID == trackID {
				trex = candidate
				break
			}
		}
	}

	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil || !hasTrack(frag.Moof, trackID) {
				continue
			}
			fullSamples, err := frag.GetFullSamples(trex)
			if err != nil {
				return nil, fmt.Errorf("unable to get the samples of a fragment: %w", err)
			}
			for _, s := range fullSamples {
				t.Samples = append(t.Samples, sample{
					Data: s.Data,
					DTS:  s.DecodeTime,
					PTS:  uint64(int64(s.DecodeTime) + int64(s.CompositionTimeOffset)),
					Sync: s.Flags == mp4.SyncSampleFlags,
				})
			}
		}
	}
	return t, nil
}

func hasTrack(moof *mp4.MoofBox, trackID uint32) bool {
	for _, traf := range moof.Trafs {
		if traf.Tfhd.TrackID == trackID {
			return true
		}
	}
	return false
}

func readProgressive(f *mp4.File, r io.ReadSeeker) (*videoTrack, error) {
	trak, err := findVideoTrak(f.Moov)
	if err != nil {
		return nil, err
	}
	t, err := newVideoTrack(trak)
	if err != nil {
		return nil, err
	}

	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil || stbl.Stsc == nil || stbl.Stts == nil {
		return nil, fmt.Errorf("incomplete sample table")
	}
	syncSamples := map[uint32]struct{}{}
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = struct{}{}
		}
	}

	for nr := uint32(1); nr <= stbl.Stsz.SampleNumber; nr++ {
		data, err := readSampleData(stbl, r, nr)
		if err != nil {
			return nil, fmt.Errorf("unable to read sample #%d: %w", nr, err)
		}
		dts, _ := stbl.Stts.GetDecodeTime(nr)
		pts := int64(dts)
		if stbl.Ctts != nil {
			pts += int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}
		_, isSync := syncSamples[nr]
		t.Samples = append(t.Samples, sample{
			Data: data,
			DTS:  dts,
			PTS:  uint64(pts),
			Sync: isSync || stbl.Stss == nil,
		})
	}
	return t, nil
}

func readSampleData(stbl *mp4.StblBox, r io.ReadSeeker, nr uint32) ([]byte, error) {
	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
	if err != nil {
		return nil, fmt.Errorf("unable to find the chunk: %w", err)
	}

	var offset uint64
	switch {
	case stbl.Stco != nil:
		offset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, fmt.Errorf("unable to get the chunk offset: %w", err)
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk #%d is out of range", chunkNr)
		}
		offset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no chunk offset box")
	}
	for s := uint32(firstSampleInChunk); s < nr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}

	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("unable to seek: %w", err)
	}
	data := make([]byte, stbl.Stsz.GetSampleSize(int(nr)))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("unable to read: %w", err)
	}
	return data, nil
}
