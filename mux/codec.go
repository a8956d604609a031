package mux

import (
	"path/filepath"
	"strings"

	"github.com/pion/opus"
	"github.com/sirupsen/logrus"
)

// BandwidthForSampleRate returns the widest Opus bandwidth the source rate
// can carry.
func BandwidthForSampleRate(sampleRate int) opus.Bandwidth {
	var bandwidth opus.Bandwidth
	switch nyquist := sampleRate / 2; {
	case nyquist >= 20000:
		bandwidth = opus.BandwidthFullband
	case nyquist >= 12000:
		bandwidth = opus.BandwidthSuperwideband
	case nyquist >= 8000:
		bandwidth = opus.BandwidthWideband
	case nyquist >= 6000:
		bandwidth = opus.BandwidthMediumband
	default:
		bandwidth = opus.BandwidthNarrowband
	}

	logrus.WithFields(logrus.Fields{
		"function":    "BandwidthForSampleRate",
		"sample_rate": sampleRate,
		"bandwidth":   bandwidth.String(),
	}).Debug("Sample rate mapped to Opus bandwidth")
	return bandwidth
}

// OpusCutoff returns the libopus encoder cutoff frequency in Hz for b: the
// Nyquist frequency of the bandwidth, limited to the 20 kHz fullband edge.
func OpusCutoff(b opus.Bandwidth) int {
	return min(b.SampleRate()/2, 20000)
}

// OpusOutputRate returns the encoder sample rate for b.
func OpusOutputRate(b opus.Bandwidth) int {
	if rate := b.SampleRate(); rate > 0 {
		return rate
	}
	return opus.BandwidthFullband.SampleRate()
}

// OpusMaxBitRate is the highest bit rate libopus accepts, in bits per second.
const OpusMaxBitRate = 510000

// opusMinBitRate is the lowest useful bit rate per bandwidth.
var opusMinBitRate = map[opus.Bandwidth]int{
	opus.BandwidthNarrowband:    6000,
	opus.BandwidthMediumband:    8000,
	opus.BandwidthWideband:      12000,
	opus.BandwidthSuperwideband: 16000,
	opus.BandwidthFullband:      24000,
}

// OpusBitRate clamps requested into the range the encoder can use for b.
func OpusBitRate(b opus.Bandwidth, requested int) int {
	lo, ok := opusMinBitRate[b]
	if !ok {
		lo = opusMinBitRate[opus.BandwidthFullband]
	}
	rate := max(lo, min(requested, OpusMaxBitRate))
	if rate != requested {
		logrus.WithFields(logrus.Fields{
			"function":  "OpusBitRate",
			"bandwidth": b.String(),
			"requested": requested,
			"bit_rate":  rate,
		}).Warn("Opus bit rate clamped to bandwidth range")
	}
	return rate
}

// ContainerFormat returns the ffmpeg muxer name for an output path.
func ContainerFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mkv":
		return "matroska"
	case ".webm":
		return "webm"
	case ".mov":
		return "mov"
	}
	return "mp4"
}
