package rxcore

// runDecoder feeds frame through dec byte by byte, the way the Serial
// Framer would, and returns the final outcome and the channel vector
// as mutated by Step calls.
func runDecoder(dec Decoder, frame []byte, order [MaxChannels]int) (ChannelVector, Outcome) {
	var fs FrameState
	var out ChannelVector
	var last Outcome
	for _, b := range frame {
		fs.AppendByte(b)
		last = dec.Step(&fs, b, &order, &out)
		fs.ByteCount++
	}
	return out, last
}

func identityOrder() [MaxChannels]int {
	var order [MaxChannels]int
	for i := range order {
		order[i] = i
	}
	return order
}
