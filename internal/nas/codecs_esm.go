package nas

import (
	"fmt"
	"net"
	"strings"

	"github.com/epsnet/naseps/internal/wire"
)

// ESM cause values (TS 24.301 9.9.4.4), representative subset.
var esmCauseNames = map[uint8]string{
	8:   "Operator determined barring",
	26:  "Insufficient resources",
	27:  "Missing or unknown APN",
	28:  "Unknown PDN type",
	29:  "User authentication failed",
	30:  "Request rejected by Serving GW or PDN GW",
	31:  "Request rejected, unspecified",
	32:  "Service option not supported",
	33:  "Requested service option not subscribed",
	34:  "Service option temporarily out of order",
	35:  "PTI already in use",
	36:  "Regular deactivation",
	37:  "EPS QoS not accepted",
	38:  "Network failure",
	39:  "Reactivation requested",
	41:  "Semantic error in the TFT operation",
	42:  "Syntactical error in the TFT operation",
	43:  "Invalid EPS bearer identity",
	44:  "Semantic errors in packet filter(s)",
	45:  "Syntactical errors in packet filter(s)",
	49:  "Last PDN disconnection not allowed",
	50:  "PDN type IPv4 only allowed",
	51:  "PDN type IPv6 only allowed",
	52:  "Single address bearers only allowed",
	53:  "ESM information not received",
	54:  "PDN connection does not exist",
	55:  "Multiple PDN connections for a given APN not allowed",
	56:  "Collision with network initiated request",
	59:  "Unsupported QCI value",
	60:  "Bearer handling not supported",
	65:  "Maximum number of EPS bearers reached",
	66:  "Requested APN not supported in current RAT and PLMN combination",
	81:  "Invalid PTI value",
	95:  "Semantically incorrect message",
	96:  "Invalid mandatory information",
	97:  "Message type non-existent or not implemented",
	98:  "Message type not compatible with protocol state",
	99:  "Information element non-existent or not implemented",
	100: "Conditional IE error",
	101: "Message not compatible with protocol state",
	111: "Protocol error, unspecified",
}

func decESMCause(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 1 {
		return nil, errEmptyValue
	}
	name, ok := esmCauseNames[val[0]]
	if !ok {
		name = "Unspecified"
	}
	return &Cause{Code: val[0], Name: name}, nil
}

// bitrateKbps is the nonlinear octet-to-rate table of TS 24.008
// 10.5.6.5 (maximum/guaranteed bit rate octets). Reproduced verbatim:
//
//	0        reserved (rendered as 0)
//	1..63    value kbps
//	64..127  64 + (value-64) * 8 kbps
//	128..254 576 + (value-128) * 64 kbps
//	255      0 kbps
func bitrateKbps(v byte) uint32 {
	switch {
	case v == 0 || v == 255:
		return 0
	case v < 64:
		return uint32(v)
	case v < 128:
		return 64 + (uint32(v)-64)*8
	default:
		return 576 + (uint32(v)-128)*64
	}
}

// extendedBitrateKbps is the extension octet table of TS 24.008
// 10.5.6.5; a non-zero extension octet replaces the base octet value:
//
//	0        use the non-extended value
//	1..74    8600 + value * 100 kbps
//	75..186  16000 + (value-74) * 1000 kbps
//	187..250 128000 + (value-186) * 2000 kbps
//	251..255 256000 kbps
func extendedBitrateKbps(base uint32, e byte) uint32 {
	switch {
	case e == 0:
		return base
	case e <= 74:
		return 8600 + uint32(e)*100
	case e <= 186:
		return 16000 + (uint32(e)-74)*1000
	case e <= 250:
		return 128000 + (uint32(e)-186)*2000
	default:
		return 256000
	}
}

// EPSQoS is the decoded EPS quality of service element
// (TS 24.301 9.9.4.3). Rates are in kbps; HasRates reports whether the
// optional rate octets were present at all.
type EPSQoS struct {
	QCI         uint8
	HasRates    bool
	MBRUplink   uint32
	MBRDownlink uint32
	GBRUplink   uint32
	GBRDownlink uint32
}

func decEPSQoS(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 1 {
		return nil, errEmptyValue
	}
	q := &EPSQoS{QCI: val[0]}
	if len(val) < 5 {
		return q, nil
	}
	q.HasRates = true
	q.MBRUplink = bitrateKbps(val[1])
	q.MBRDownlink = bitrateKbps(val[2])
	q.GBRUplink = bitrateKbps(val[3])
	q.GBRDownlink = bitrateKbps(val[4])
	if len(val) >= 9 {
		q.MBRUplink = extendedBitrateKbps(q.MBRUplink, val[5])
		q.MBRDownlink = extendedBitrateKbps(q.MBRDownlink, val[6])
		q.GBRUplink = extendedBitrateKbps(q.GBRUplink, val[7])
		q.GBRDownlink = extendedBitrateKbps(q.GBRDownlink, val[8])
	}
	return q, nil
}

// APNAMBR is the aggregate maximum bit rate element
// (TS 24.301 9.9.4.2), downlink octet first.
type APNAMBR struct {
	DownlinkKbps uint32
	UplinkKbps   uint32
}

func decAPNAMBR(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 2 {
		return nil, fmt.Errorf("APN-AMBR needs 2 octets, have %d", len(val))
	}
	a := &APNAMBR{
		DownlinkKbps: bitrateKbps(val[0]),
		UplinkKbps:   bitrateKbps(val[1]),
	}
	if len(val) >= 4 {
		a.DownlinkKbps = extendedBitrateKbps(a.DownlinkKbps, val[2])
		a.UplinkKbps = extendedBitrateKbps(a.UplinkKbps, val[3])
	}
	return a, nil
}

// decAPN joins the DNS-style length-prefixed labels of an access point
// name (TS 23.003).
func decAPN(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) == 0 {
		return nil, errEmptyValue
	}
	var labels []string
	for len(val) > 0 {
		l := int(val[0])
		val = val[1:]
		if l == 0 || l > len(val) {
			return nil, fmt.Errorf("bad APN label length %d", l)
		}
		labels = append(labels, string(val[:l]))
		val = val[l:]
	}
	return strings.Join(labels, "."), nil
}

// PDN type values (TS 24.301 9.9.4.10).
const (
	PDNTypeIPv4   = 1
	PDNTypeIPv6   = 2
	PDNTypeIPv4v6 = 3
	PDNTypeNonIP  = 5
)

var pdnTypeNames = map[uint8]string{
	PDNTypeIPv4:   "IPv4",
	PDNTypeIPv6:   "IPv6",
	PDNTypeIPv4v6: "IPv4v6",
	PDNTypeNonIP:  "Non-IP",
}

// PDNAddress is the decoded PDN address element (TS 24.301 9.9.4.9).
// IPv6Interface carries the 8-octet interface identifier; the Non-IP
// form carries neither address.
type PDNAddress struct {
	TypeValue     uint8
	TypeName      string
	IPv4          net.IP
	IPv6Interface []byte
	Raw           []byte
}

// decPDNAddress parses address octets strictly keyed on the PDN type
// value; an unknown or Non-IP type never attempts address parsing.
func decPDNAddress(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 1 {
		return nil, errEmptyValue
	}
	a := &PDNAddress{TypeValue: val[0] & 0x07, Raw: val[1:]}
	a.TypeName = pdnTypeNames[a.TypeValue]
	if a.TypeName == "" {
		a.TypeName = "Reserved"
	}
	rest := val[1:]
	switch a.TypeValue {
	case PDNTypeIPv4:
		if len(rest) < 4 {
			return nil, fmt.Errorf("IPv4 PDN address needs 4 octets, have %d", len(rest))
		}
		a.IPv4 = net.IPv4(rest[0], rest[1], rest[2], rest[3])
	case PDNTypeIPv6:
		if len(rest) < 8 {
			return nil, fmt.Errorf("IPv6 PDN address needs 8 octets, have %d", len(rest))
		}
		a.IPv6Interface = rest[:8]
	case PDNTypeIPv4v6:
		if len(rest) < 12 {
			return nil, fmt.Errorf("IPv4v6 PDN address needs 12 octets, have %d", len(rest))
		}
		a.IPv6Interface = rest[:8]
		a.IPv4 = net.IPv4(rest[8], rest[9], rest[10], rest[11])
	}
	return a, nil
}

// PCOEntry is one protocol or container unit of the protocol
// configuration options element.
type PCOEntry struct {
	ID       uint16
	Contents []byte
}

// PCO is the decoded protocol configuration options element
// (TS 24.008 10.5.6.3).
type PCO struct {
	ConfigProtocol uint8
	Entries        []PCOEntry
}

func decPCO(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) == 0 {
		return &PCO{}, nil
	}
	p := &PCO{ConfigProtocol: val[0] & 0x07}
	val = val[1:]
	for len(val) > 0 {
		if len(val) < 3 {
			return nil, fmt.Errorf("short PCO unit header: %d octets left", len(val))
		}
		id := uint16(val[0])<<8 | uint16(val[1])
		l := int(val[2])
		val = val[3:]
		if l > len(val) {
			return nil, fmt.Errorf("PCO unit 0x%04x overruns: need %d octets, have %d", id, l, len(val))
		}
		p.Entries = append(p.Entries, PCOEntry{ID: id, Contents: val[:l]})
		val = val[l:]
	}
	return p, nil
}

// LinkedTI is the linked transaction identifier element
// (TS 24.008 10.5.6.7).
type LinkedTI struct {
	Flag  bool
	Value uint8
}

func decLinkedTI(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 1 {
		return nil, errEmptyValue
	}
	ti := &LinkedTI{Flag: val[0]&0x80 != 0, Value: (val[0] >> 4) & 0x07}
	if ti.Value == 7 && len(val) >= 2 {
		ti.Value = val[1] & 0x7f
	}
	return ti, nil
}

// decNBIFOMContainer routes the container payload through the injected
// host dissector; without one the payload stays raw.
func decNBIFOMContainer(dc *wire.DecodeCtx, val []byte) (any, error) {
	if dc != nil && dc.Handoff != nil {
		if rendered, ok := dc.Handoff.TryDecode("nbifom", val); ok {
			return rendered, nil
		}
	}
	return val, nil
}

var esmCodecs = mergeTables(commonCodecs, codecTable{
	IDEPSQoS:                {Name: "EPS quality of service", Shape: wire.ShapeLV, Decode: decEPSQoS},
	IDAccessPointName:       {Name: "Access point name", Shape: wire.ShapeLV, Decode: decAPN},
	IDPDNAddress:            {Name: "PDN address", Shape: wire.ShapeLV, Decode: decPDNAddress},
	IDESMCause:              {Name: "ESM cause", Shape: wire.ShapeV, Len: 1, Decode: decESMCause},
	IDAPNAMBR:               {Name: "APN aggregate maximum bit rate", Shape: wire.ShapeTLV, Decode: decAPNAMBR},
	IDProtocolConfigOptions: {Name: "Protocol configuration options", Shape: wire.ShapeTLV, Decode: decPCO},
	IDNegotiatedQoS:         {Name: "Negotiated QoS", Shape: wire.ShapeTLV},
	IDLinkedTI:              {Name: "Transaction identifier", Shape: wire.ShapeTLV, Decode: decLinkedTI},
	IDRadioPriority:         {Name: "Radio priority", Shape: wire.ShapeTVShort},
	IDESMInfoTransferFlag:   {Name: "ESM information transfer flag", Shape: wire.ShapeTVShort},
	IDDeviceProperties:      {Name: "Device properties", Shape: wire.ShapeTVShort},
	IDNBIFOMContainer:       {Name: "NBIFOM container", Shape: wire.ShapeTLV, Decode: decNBIFOMContainer},
	IDT3396:                 {Name: "Back-off timer value", Shape: wire.ShapeTLV, Decode: decGPRSTimer3},
})
