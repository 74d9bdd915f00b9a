package rxcore

/*------------------------------------------------------------------
 *
 * Purpose:	Gap-based byte framer shared by all the serial
 *		transports.
 *
 * Description:	Every byte's arrival time
 *		is compared against the previous byte's. A gap longer than
 *		PACKET_TIMER means the last byte belonged to (or ended) a
 *		different frame, so FrameState is reset before this byte is
 *		folded in. The framer itself never interprets frame
 *		contents (that's decoderForMode's job); it only decides
 *		where one frame ends and the next begins, and stamps the
 *		frame-rate measurement.
 *
 *------------------------------------------------------------------*/

// packetTimer is the inter-byte gap, in timebase ticks, beyond which a
// new byte starts a new frame rather than continuing the current one
// (1ms at 2.5MHz).
const packetTimer = 2500

// HandleSerialByte processes one byte read from the active serial
// transport at timestamp now. It is the single entry point every
// serial decoder's bytes flow through.
func (r *Receiver) HandleSerialByte(b byte, now uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter.NoteEvent()

	if !r.cfg.RxMode.isSerial() {
		return
	}

	if r.haveLastByte {
		if gap := tickDelta(now, r.lastByteTime); gap > packetTimer {
			// The gap itself is the frame-rate measurement, recorded
			// here regardless of how the frame it closes turns out to
			// decode: the measurement comes from the gap, not from
			// decode success.
			r.frameRate = gap
			r.fs.Reset()
		}
	}
	r.lastByteTime = now
	r.haveLastByte = true

	dec := decoderForMode(r.cfg.RxMode)
	if dec == nil {
		return
	}

	appended := r.fs.AppendByte(b)
	outcome := dec.Step(&r.fs, b, &r.cfg.ChannelOrder, &r.channels)
	r.fs.ByteCount++
	if !appended && outcome == OutcomeIncomplete {
		// The byte was dropped for lack of buffer space; the frame
		// already captured is still evaluated as its remaining bytes
		// arrive.
		outcome = OutcomeBufferOverrun
	}

	switch outcome {
	case OutcomeAccepted:
		r.fs.Reset()
		r.publishFrame(now)
	case OutcomeChecksumMismatch, OutcomeRejectedByFlagBits:
		r.fs.Reset()
	case OutcomeBufferOverrun:
		Log.Debug("packet buffer full, byte dropped", "mode", r.cfg.RxMode)
	}
}
