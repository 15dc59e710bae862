package nas

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/epsnet/naseps/internal/wire"
)

var errEmptyValue = errors.New("empty value")

// Mobile identity types (TS 24.008 10.5.1.4 plus the GUTI form from
// TS 24.301 9.9.3.12).
const (
	identityNone   = 0
	identityIMSI   = 1
	identityIMEI   = 3
	identityTMSI   = 4
	identityIMEISV = 2
	identityGUTI   = 6
)

var identityTypeNames = map[uint8]string{
	identityNone:   "No identity",
	identityIMSI:   "IMSI",
	identityIMEISV: "IMEISV",
	identityIMEI:   "IMEI",
	identityTMSI:   "TMSI",
	identityGUTI:   "GUTI",
}

// GUTI is the globally unique temporary identity form of a mobile
// identity element.
type GUTI struct {
	PLMN    string
	GroupID uint16
	Code    uint8
	MTMSI   uint32
}

// MobileIdentity is the decoded payload of a mobile identity element
// in any of its forms. Digits is empty for the TMSI and GUTI forms.
type MobileIdentity struct {
	Type     uint8
	TypeName string
	Odd      bool
	Digits   string
	TMSI     uint32
	GUTI     *GUTI
}

func decMobileIdentity(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) == 0 {
		return nil, errEmptyValue
	}
	mi := &MobileIdentity{
		Type: val[0] & 0x07,
		Odd:  val[0]&0x08 != 0,
	}
	mi.TypeName = identityTypeNames[mi.Type]
	if mi.TypeName == "" {
		mi.TypeName = "Reserved"
	}
	switch mi.Type {
	case identityGUTI:
		if len(val) < 11 {
			return nil, fmt.Errorf("GUTI needs 11 octets, have %d", len(val))
		}
		mi.GUTI = &GUTI{
			PLMN:    decPLMN(val[1:4]),
			GroupID: uint16(val[4])<<8 | uint16(val[5]),
			Code:    val[6],
			MTMSI:   uint32(val[7])<<24 | uint32(val[8])<<16 | uint32(val[9])<<8 | uint32(val[10]),
		}
	case identityTMSI:
		if len(val) < 5 {
			return nil, fmt.Errorf("TMSI needs 5 octets, have %d", len(val))
		}
		mi.TMSI = uint32(val[1])<<24 | uint32(val[2])<<16 | uint32(val[3])<<8 | uint32(val[4])
	default:
		mi.Digits = decBCDDigits(val, mi.Odd)
	}
	return mi, nil
}

// decBCDDigits extracts identity digits starting with the high nibble
// of the first octet, then low-before-high for the rest (TS 24.008
// filler convention).
func decBCDDigits(val []byte, odd bool) string {
	var sb strings.Builder
	sb.WriteByte(bcdDigit(val[0] >> 4))
	for _, b := range val[1:] {
		sb.WriteByte(bcdDigit(b & 0x0f))
		sb.WriteByte(bcdDigit(b >> 4))
	}
	s := sb.String()
	return strings.TrimRight(s, "f")
}

func bcdDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'a' + n - 10
}

// decPLMN decodes the three-octet MCC/MNC encoding; a two-digit MNC
// carries filler 0xf in the third digit position.
func decPLMN(b []byte) string {
	if len(b) < 3 {
		return ""
	}
	digits := []byte{
		bcdDigit(b[0] & 0x0f), bcdDigit(b[0] >> 4), bcdDigit(b[1] & 0x0f),
		bcdDigit(b[2] & 0x0f), bcdDigit(b[2] >> 4), bcdDigit(b[1] >> 4),
	}
	s := string(digits)
	return strings.TrimRight(s, "f")
}

// LocationAreaID is PLMN plus location area code (TS 24.008 10.5.1.3).
type LocationAreaID struct {
	PLMN string
	LAC  uint16
}

func decLocationAreaID(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 5 {
		return nil, fmt.Errorf("location area id needs 5 octets, have %d", len(val))
	}
	return &LocationAreaID{
		PLMN: decPLMN(val[:3]),
		LAC:  uint16(val[3])<<8 | uint16(val[4]),
	}, nil
}

// GPRSTimer is the one-octet timer encoding of TS 24.008 10.5.7.3:
// bits 6-8 select the unit, bits 1-5 the multiplier.
type GPRSTimer struct {
	Unit        uint8
	Value       uint8
	Deactivated bool
	Duration    time.Duration
}

func decGPRSTimer(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 1 {
		return nil, errEmptyValue
	}
	t := &GPRSTimer{Unit: val[0] >> 5, Value: val[0] & 0x1f}
	switch t.Unit {
	case 0:
		t.Duration = time.Duration(t.Value) * 2 * time.Second
	case 1:
		t.Duration = time.Duration(t.Value) * time.Minute
	case 2:
		t.Duration = time.Duration(t.Value) * 6 * time.Minute
	case 7:
		t.Deactivated = true
	default:
		// Unassigned units are interpreted as 1 minute steps.
		t.Duration = time.Duration(t.Value) * time.Minute
	}
	return t, nil
}

// decGPRSTimer3 decodes the GPRS timer 3 unit table (TS 24.008
// 10.5.7.4a), used by T3412 extended and the back-off timers.
func decGPRSTimer3(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 1 {
		return nil, errEmptyValue
	}
	t := &GPRSTimer{Unit: val[0] >> 5, Value: val[0] & 0x1f}
	switch t.Unit {
	case 0:
		t.Duration = time.Duration(t.Value) * 10 * time.Minute
	case 1:
		t.Duration = time.Duration(t.Value) * time.Hour
	case 2:
		t.Duration = time.Duration(t.Value) * 10 * time.Hour
	case 3:
		t.Duration = time.Duration(t.Value) * 2 * time.Second
	case 4:
		t.Duration = time.Duration(t.Value) * 30 * time.Second
	case 5:
		t.Duration = time.Duration(t.Value) * time.Minute
	case 6:
		t.Duration = time.Duration(t.Value) * 320 * time.Hour
	case 7:
		t.Deactivated = true
	}
	return t, nil
}

// NetworkName is an operator name element (TS 24.008 10.5.3.5a). Text
// is decoded when the coding scheme is the GSM 7 bit default alphabet.
type NetworkName struct {
	CodingScheme uint8
	AddCI        bool
	SpareBits    uint8
	Text         string
	Raw          []byte
}

func decNetworkName(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 1 {
		return nil, errEmptyValue
	}
	nn := &NetworkName{
		CodingScheme: (val[0] >> 4) & 0x07,
		AddCI:        val[0]&0x08 != 0,
		SpareBits:    val[0] & 0x07,
		Raw:          val[1:],
	}
	if nn.CodingScheme == 0 {
		nn.Text = decodeGSM7(val[1:], nn.SpareBits)
	}
	return nn, nil
}

// TimeAndTimeZone is the seven-octet universal time element
// (TS 24.008 10.5.3.9). The time zone is in quarter hours from GMT.
type TimeAndTimeZone struct {
	Time           time.Time
	TZQuarterHours int
}

func decTimeAndTimeZone(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 7 {
		return nil, fmt.Errorf("time and time zone needs 7 octets, have %d", len(val))
	}
	swap := func(b byte) int { return int(b&0x0f)*10 + int(b>>4) }
	year := 2000 + swap(val[0])
	t := time.Date(year, time.Month(swap(val[1])), swap(val[2]),
		swap(val[3]), swap(val[4]), swap(val[5]), 0, time.UTC)
	return &TimeAndTimeZone{Time: t, TZQuarterHours: tzQuarters(val[6])}, nil
}

// tzQuarters decodes the swapped-BCD time zone octet: tens digit in
// bits 1-3, sign in bit 4, units digit in the high nibble.
func tzQuarters(b byte) int {
	q := int(b&0x07)*10 + int(b>>4)
	if b&0x08 != 0 {
		q = -q
	}
	return q
}

func decTimeZone(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 1 {
		return nil, errEmptyValue
	}
	return tzQuarters(val[0]), nil
}

var commonCodecs = codecTable{
	IDMobileIdentity:     {Name: "Mobile identity", Shape: wire.ShapeLV, Decode: decMobileIdentity},
	IDLocationAreaID:     {Name: "Location area identification", Shape: wire.ShapeTV, Len: 5, Decode: decLocationAreaID},
	IDNetworkNameFull:    {Name: "Network name (full)", Shape: wire.ShapeTLV, Decode: decNetworkName},
	IDNetworkNameShort:   {Name: "Network name (short)", Shape: wire.ShapeTLV, Decode: decNetworkName},
	IDLocalTimeZone:      {Name: "Local time zone", Shape: wire.ShapeTV, Len: 1, Decode: decTimeZone},
	IDUniversalTimeZone:  {Name: "Universal time and local time zone", Shape: wire.ShapeTV, Len: 7, Decode: decTimeAndTimeZone},
	IDDaylightSavingTime: {Name: "Network daylight saving time", Shape: wire.ShapeTLV},
	IDSpareHalfOctet:     {Name: "Spare half octet", Shape: wire.ShapeV, HalfOctet: true},
}
