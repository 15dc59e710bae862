package nas

import (
	"fmt"

	"github.com/epsnet/naseps/internal/wire"
)

// EMM cause values (TS 24.301 9.9.3.9), representative subset.
var emmCauseNames = map[uint8]string{
	2:   "IMSI unknown in HSS",
	3:   "Illegal UE",
	5:   "IMEI not accepted",
	6:   "Illegal ME",
	7:   "EPS services not allowed",
	8:   "EPS services and non-EPS services not allowed",
	9:   "UE identity cannot be derived by the network",
	10:  "Implicitly detached",
	11:  "PLMN not allowed",
	12:  "Tracking area not allowed",
	13:  "Roaming not allowed in this tracking area",
	14:  "EPS services not allowed in this PLMN",
	15:  "No suitable cells in tracking area",
	16:  "MSC temporarily not reachable",
	17:  "Network failure",
	18:  "CS domain not available",
	19:  "ESM failure",
	20:  "MAC failure",
	21:  "Synch failure",
	22:  "Congestion",
	23:  "UE security capabilities mismatch",
	24:  "Security mode rejected, unspecified",
	25:  "Not authorized for this CSG",
	26:  "Non-EPS authentication unacceptable",
	35:  "Requested service option not authorized in this PLMN",
	39:  "CS service temporarily not available",
	40:  "No EPS bearer context activated",
	42:  "Severe network failure",
	95:  "Semantically incorrect message",
	96:  "Invalid mandatory information",
	97:  "Message type non-existent or not implemented",
	98:  "Message type not compatible with protocol state",
	99:  "Information element non-existent or not implemented",
	100: "Conditional IE error",
	101: "Message not compatible with protocol state",
	111: "Protocol error, unspecified",
}

// Cause is a decoded cause element, shared by the EMM and ESM cause
// codecs.
type Cause struct {
	Code uint8
	Name string
}

func decEMMCause(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 1 {
		return nil, errEmptyValue
	}
	name, ok := emmCauseNames[val[0]]
	if !ok {
		name = "Unspecified"
	}
	return &Cause{Code: val[0], Name: name}, nil
}

// UENetworkCapability holds the algorithm bitmaps of the UE network
// capability element (TS 24.301 9.9.3.34). Octets beyond EEA/EIA are
// kept raw.
type UENetworkCapability struct {
	EEA   uint8
	EIA   uint8
	UEA   uint8
	UIA   uint8
	Extra []byte
}

func decUENetworkCapability(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 2 {
		return nil, fmt.Errorf("UE network capability needs 2 octets, have %d", len(val))
	}
	c := &UENetworkCapability{EEA: val[0], EIA: val[1]}
	if len(val) > 2 {
		c.UEA = val[2]
	}
	if len(val) > 3 {
		c.UIA = val[3]
	}
	if len(val) > 4 {
		c.Extra = val[4:]
	}
	return c, nil
}

// UESecurityCapability mirrors the replayed UE security capabilities
// element of the security mode command (TS 24.301 9.9.3.36).
type UESecurityCapability struct {
	EEA uint8
	EIA uint8
	UEA uint8
	UIA uint8
	GEA uint8
}

func decUESecurityCapability(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 2 {
		return nil, fmt.Errorf("UE security capability needs 2 octets, have %d", len(val))
	}
	c := &UESecurityCapability{EEA: val[0], EIA: val[1]}
	if len(val) > 2 {
		c.UEA = val[2]
	}
	if len(val) > 3 {
		c.UIA = val[3]
	}
	if len(val) > 4 {
		c.GEA = val[4]
	}
	return c, nil
}

// NASSecurityAlgorithms is the selected algorithm pair of the security
// mode command (TS 24.301 9.9.3.23).
type NASSecurityAlgorithms struct {
	Ciphering uint8
	Integrity uint8
}

func (a *NASSecurityAlgorithms) String() string {
	return fmt.Sprintf("EEA%d/EIA%d", a.Ciphering, a.Integrity)
}

func decNASSecurityAlgorithms(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 1 {
		return nil, errEmptyValue
	}
	return &NASSecurityAlgorithms{
		Ciphering: (val[0] >> 4) & 0x07,
		Integrity: val[0] & 0x07,
	}, nil
}

// TAI is one tracking area: PLMN plus tracking area code.
type TAI struct {
	PLMN string
	TAC  uint16
}

// TAIPartial is one partial tracking area identity list
// (TS 24.301 9.9.3.33). Type 0 shares one PLMN over listed TACs,
// type 1 lists consecutive TACs from a base, type 2 lists full TAIs.
type TAIPartial struct {
	Type uint8
	TAIs []TAI
}

// TAIList is the decoded tracking area identity list.
type TAIList struct {
	Partials []TAIPartial
}

func decTAIList(_ *wire.DecodeCtx, val []byte) (any, error) {
	list := &TAIList{}
	for len(val) > 0 {
		head := val[0]
		typ := (head >> 5) & 0x03
		n := int(head&0x1f) + 1
		val = val[1:]
		p := TAIPartial{Type: typ}
		switch typ {
		case 0:
			if len(val) < 3+2*n {
				return nil, fmt.Errorf("type 0 partial list short: need %d octets, have %d", 3+2*n, len(val))
			}
			plmn := decPLMN(val[:3])
			val = val[3:]
			for i := 0; i < n; i++ {
				p.TAIs = append(p.TAIs, TAI{PLMN: plmn, TAC: uint16(val[0])<<8 | uint16(val[1])})
				val = val[2:]
			}
		case 1:
			if len(val) < 5 {
				return nil, fmt.Errorf("type 1 partial list short: need 5 octets, have %d", len(val))
			}
			plmn := decPLMN(val[:3])
			base := uint16(val[3])<<8 | uint16(val[4])
			val = val[5:]
			for i := 0; i < n; i++ {
				p.TAIs = append(p.TAIs, TAI{PLMN: plmn, TAC: base + uint16(i)})
			}
		case 2:
			if len(val) < 5*n {
				return nil, fmt.Errorf("type 2 partial list short: need %d octets, have %d", 5*n, len(val))
			}
			for i := 0; i < n; i++ {
				p.TAIs = append(p.TAIs, TAI{
					PLMN: decPLMN(val[:3]),
					TAC:  uint16(val[3])<<8 | uint16(val[4]),
				})
				val = val[5:]
			}
		default:
			return nil, fmt.Errorf("reserved partial list type %d", typ)
		}
		list.Partials = append(list.Partials, p)
	}
	return list, nil
}

func decIdentityType(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 1 {
		return nil, errEmptyValue
	}
	typ := val[0] & 0x07
	name, ok := identityTypeNames[typ]
	if !ok {
		name = "Reserved"
	}
	return &Cause{Code: typ, Name: name}, nil
}

// decESMContainer re-enters the full message decoder: the container
// value is itself a complete NAS message.
func decESMContainer(dc *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) == 0 {
		return nil, errEmptyValue
	}
	if dc == nil || dc.Nested == nil {
		return val, nil
	}
	return dc.Nested(val), nil
}

// decNASContainer hands the embedded payload (typically an SMS PDU) to
// the host dissector when one is injected, and keeps it raw otherwise.
func decNASContainer(dc *wire.DecodeCtx, val []byte) (any, error) {
	if dc != nil && dc.Handoff != nil {
		if rendered, ok := dc.Handoff.TryDecode("sms", val); ok {
			return rendered, nil
		}
	}
	return val, nil
}

var emmCodecs = mergeTables(commonCodecs, codecTable{
	IDEPSMobileIdentity:        {Name: "EPS mobile identity", Shape: wire.ShapeLV, Decode: decMobileIdentity},
	IDUENetworkCapability:      {Name: "UE network capability", Shape: wire.ShapeLV, Decode: decUENetworkCapability},
	IDESMMessageContainer:      {Name: "ESM message container", Shape: wire.ShapeLVE, Decode: decESMContainer},
	IDOldPTMSISignature:        {Name: "Old P-TMSI signature", Shape: wire.ShapeTV, Len: 3},
	IDLastVisitedTAI:           {Name: "Last visited registered TAI", Shape: wire.ShapeTV, Len: 5, Decode: decTAI},
	IDEMMCause:                 {Name: "EMM cause", Shape: wire.ShapeV, Len: 1, Decode: decEMMCause},
	IDTAIList:                  {Name: "TAI list", Shape: wire.ShapeLV, Decode: decTAIList},
	IDNonceUE:                  {Name: "Replayed nonce UE", Shape: wire.ShapeTV, Len: 4},
	IDNonceMNC:                 {Name: "Nonce MME", Shape: wire.ShapeTV, Len: 4},
	IDT3412:                    {Name: "T3412 value", Shape: wire.ShapeV, Len: 1, Decode: decGPRSTimer},
	IDT3402:                    {Name: "T3402 value", Shape: wire.ShapeTV, Len: 1, Decode: decGPRSTimer},
	IDT3423:                    {Name: "T3423 value", Shape: wire.ShapeTV, Len: 1, Decode: decGPRSTimer},
	IDT3442:                    {Name: "T3442 value", Shape: wire.ShapeTV, Len: 1, Decode: decGPRSTimer},
	IDT3412Extended:            {Name: "T3412 extended value", Shape: wire.ShapeTLV, Decode: decGPRSTimer3},
	IDT3346:                    {Name: "T3346 value", Shape: wire.ShapeTLV, Decode: decGPRSTimer3},
	IDDRXParameter:             {Name: "DRX parameter", Shape: wire.ShapeTV, Len: 2},
	IDMSNetworkCapability:      {Name: "MS network capability", Shape: wire.ShapeTLV},
	IDAuthFailureParameter:     {Name: "Authentication failure parameter", Shape: wire.ShapeTLV},
	IDEquivalentPLMNs:          {Name: "Equivalent PLMNs", Shape: wire.ShapeTLV, Decode: decPLMNList},
	IDEmergencyNumberList:      {Name: "Emergency number list", Shape: wire.ShapeTLV},
	IDEPSNetworkFeatureSupport: {Name: "EPS network feature support", Shape: wire.ShapeTLV},
	IDReplayedNASContainer:     {Name: "Replayed NAS message container", Shape: wire.ShapeTLVE, Decode: decESMContainer},
	IDIMEISVRequest:            {Name: "IMEISV request", Shape: wire.ShapeTVShort},
	IDTMSIStatus:               {Name: "TMSI status", Shape: wire.ShapeTVShort},
	IDAdditionalUpdateType:     {Name: "Additional update type", Shape: wire.ShapeTVShort},
	IDAdditionalUpdateResult:   {Name: "Additional update result", Shape: wire.ShapeTVShort},
	IDNASKeySetIdentifier:      {Name: "NAS key set identifier", Shape: wire.ShapeV, HalfOctet: true},
	IDNASSecurityAlgorithms:    {Name: "Selected NAS security algorithms", Shape: wire.ShapeV, Len: 1, Decode: decNASSecurityAlgorithms},
	IDUESecurityCapability:     {Name: "Replayed UE security capabilities", Shape: wire.ShapeLV, Decode: decUESecurityCapability},
	IDAuthParameterRAND:        {Name: "Authentication parameter RAND", Shape: wire.ShapeV, Len: 16},
	IDAuthParameterAUTN:        {Name: "Authentication parameter AUTN", Shape: wire.ShapeLV},
	IDAuthResponseParameter:    {Name: "Authentication response parameter", Shape: wire.ShapeLV},
	IDIdentityType:             {Name: "Identity type", Shape: wire.ShapeV, HalfOctet: true, Decode: decIdentityType},
	IDNASMessageContainer:      {Name: "NAS message container", Shape: wire.ShapeLV, Decode: decNASContainer},
})

func decTAI(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val) < 5 {
		return nil, fmt.Errorf("TAI needs 5 octets, have %d", len(val))
	}
	return &TAI{PLMN: decPLMN(val[:3]), TAC: uint16(val[3])<<8 | uint16(val[4])}, nil
}

func decPLMNList(_ *wire.DecodeCtx, val []byte) (any, error) {
	if len(val)%3 != 0 {
		return nil, fmt.Errorf("PLMN list length %d not a multiple of 3", len(val))
	}
	plmns := make([]string, 0, len(val)/3)
	for i := 0; i+3 <= len(val); i += 3 {
		plmns = append(plmns, decPLMN(val[i:i+3]))
	}
	return plmns, nil
}
