// Package audio provides decode, capture, resampling, and denoising
// primitives that feed the chunker with mono 16 kHz PCM16 samples
// (pkg/types.AudioChunk.Samples), regardless of whether the source is a
// file (pkg/audio/file) or a live microphone (pkg/audio/mic).
package audio

// Format describes the sample rate of a mono PCM16 audio stream. The
// pipeline is mono throughout (spec §1) so no channel count is carried.
type Format struct {
	SampleRate int
}

// ResampleMono16 resamples mono int16 PCM samples from srcRate to dstRate
// using linear interpolation. If srcRate == dstRate, or either rate is
// non-positive, samples is returned unchanged.
func ResampleMono16(samples []int16, srcRate, dstRate int) []int16 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	srcLen := len(samples)
	dstLen := int(int64(srcLen) * int64(dstRate) / int64(srcRate))
	if dstLen == 0 {
		return nil
	}

	out := make([]int16, dstLen)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range dstLen {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := samples[srcIdx]
		s1 := s0
		if srcIdx+1 < srcLen {
			s1 = samples[srcIdx+1]
		}

		out[i] = int16(float64(s0)*(1-frac) + float64(s1)*frac)
	}
	return out
}
