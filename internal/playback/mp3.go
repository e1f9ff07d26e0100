package playback

import "time"

// Layer III bitrates in kbit/s by bitrate index.
var (
	mpeg1Bitrates = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	mpeg2Bitrates = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
)

var sampleRates = map[int][3]int{
	3: {44100, 48000, 32000}, // MPEG-1
	2: {22050, 24000, 16000}, // MPEG-2
	0: {11025, 12000, 8000},  // MPEG-2.5
}

// MP3Duration walks the MPEG Layer III frames in data and sums their
// length. It returns zero when no frame is found.
func MP3Duration(data []byte) time.Duration {
	pos := skipID3(data)
	var total float64
	for pos+4 <= len(data) {
		size, seconds, ok := parseFrame(data[pos : pos+4])
		if !ok {
			pos++
			continue
		}
		total += seconds
		pos += size
	}
	return time.Duration(total * float64(time.Second))
}

// parseFrame decodes a 4-byte frame header and returns the frame size in
// bytes and its playing time.
func parseFrame(h []byte) (int, float64, bool) {
	if h[0] != 0xFF || h[1]&0xE0 != 0xE0 {
		return 0, 0, false
	}
	version := int(h[1]>>3) & 0x03
	layer := int(h[1]>>1) & 0x03
	if version == 1 || layer != 1 {
		return 0, 0, false
	}
	bitrateIdx := int(h[2] >> 4)
	rateIdx := int(h[2]>>2) & 0x03
	padding := int(h[2]>>1) & 0x01
	if rateIdx == 3 {
		return 0, 0, false
	}

	rate := sampleRates[version][rateIdx]
	bitrate := mpeg2Bitrates[bitrateIdx]
	samples, coeff := 576, 72
	if version == 3 {
		bitrate = mpeg1Bitrates[bitrateIdx]
		samples, coeff = 1152, 144
	}
	if bitrate == 0 {
		return 0, 0, false
	}

	size := coeff*bitrate*1000/rate + padding
	if size < 4 {
		return 0, 0, false
	}
	return size, float64(samples) / float64(rate), true
}

// skipID3 returns the offset past a leading ID3v2 tag.
func skipID3(data []byte) int {
	if len(data) < 10 || string(data[:3]) != "ID3" {
		return 0
	}
	size := int(data[6]&0x7F)<<21 | int(data[7]&0x7F)<<14 | int(data[8]&0x7F)<<7 | int(data[9]&0x7F)
	size += 10
	if data[5]&0x10 != 0 {
		size += 10
	}
	if size > len(data) {
		return len(data)
	}
	return size
}
