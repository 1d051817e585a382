package smartstream

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// Binary packet decoding for the broker's streaming feed. Little-endian,
// fixed offsets; prices are int64 in hundredths. Mode 1 is LTP only, mode 2
// adds the quote block, mode 3 ("snap quote") appends the best-five depth.
// ----------------------------------------------------------------------------------

const (
	ModeLTP       = 1
	ModeQuote     = 2
	ModeSnapQuote = 3

	minPacketLTP   = 51
	minPacketQuote = 123
	minPacketSnap  = 347

	tokenOffset  = 2
	tokenLength  = 25
	depthOffset  = 147
	depthPackets = 10
	depthSize    = 20
)

// ParsePacket decodes one binary frame into a raw tick.
func ParsePacket(data []byte) (models.MRawTick, error) {
	if len(data) < minPacketLTP {
		return models.MRawTick{}, fmt.Errorf("packet too short: %d bytes", len(data))
	}

	mode := data[0]
	token := string(bytes.TrimRight(data[tokenOffset:tokenOffset+tokenLength], "\x00"))
	exchangeTS := int64(binary.LittleEndian.Uint64(data[35:43]))
	ltp := int64(binary.LittleEndian.Uint64(data[43:51]))

	tick := models.MRawTick{
		Token:           token,
		LastTradedPrice: ltp,
		EventTime:       time.UnixMilli(exchangeTS),
	}

	if mode < ModeQuote {
		return tick, nil
	}
	if len(data) < minPacketQuote {
		return models.MRawTick{}, fmt.Errorf("quote packet too short: %d bytes", len(data))
	}

	tick.VolumeTradedToday = int64(binary.LittleEndian.Uint64(data[67:75]))
	tick.OpenPrice = int64(binary.LittleEndian.Uint64(data[91:99]))

	if mode < ModeSnapQuote {
		return tick, nil
	}
	if len(data) < minPacketSnap {
		return models.MRawTick{}, fmt.Errorf("snap packet too short: %d bytes", len(data))
	}

	bid, ask := bestBidAsk(data[depthOffset : depthOffset+depthPackets*depthSize])
	if bid > 0 && ask > 0 {
		tick.BestBidPrice = bid
		tick.BestAskPrice = ask
		tick.HasDepth = true
	}
	return tick, nil
}

// bestBidAsk walks the ten best-five entries. Each is {flag int16: 1 buy /
// 0 sell, qty int64, price int64, orders int16}; the first entry per side is
// the top of book.
func bestBidAsk(depth []byte) (bid, ask int64) {
	for i := 0; i < depthPackets; i++ {
		entry := depth[i*depthSize : (i+1)*depthSize]
		flag := int16(binary.LittleEndian.Uint16(entry[0:2]))
		price := int64(binary.LittleEndian.Uint64(entry[10:18]))
		if flag == 1 {
			if bid == 0 {
				bid = price
			}
		} else {
			if ask == 0 {
				ask = price
			}
		}
		if bid != 0 && ask != 0 {
			break
		}
	}
	return bid, ask
}
