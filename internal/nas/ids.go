package nas

import "github.com/epsnet/naseps/internal/wire"

// Protocol discriminators (TS 24.007 11.2.3.1.1).
const (
	PDSessionManagement  uint8 = 0x02
	PDMobilityManagement uint8 = 0x07
)

// Element ids. Values at or below 0xff match the 3GPP IEI and double
// as the wire tag when the element appears in a TV/TLV slot; values
// above 0xff number elements that only ever appear untagged.
//
// Common information elements (TS 24.008).
const (
	IDMobileIdentity     wire.ElementID = 0x23
	IDLocationAreaID     wire.ElementID = 0x13
	IDNetworkNameFull    wire.ElementID = 0x43
	IDNetworkNameShort   wire.ElementID = 0x45
	IDLocalTimeZone      wire.ElementID = 0x46
	IDUniversalTimeZone  wire.ElementID = 0x47
	IDDaylightSavingTime wire.ElementID = 0x49
	IDSpareHalfOctet     wire.ElementID = 0x1ff
)

// EMM information elements (TS 24.301 9.9.3).
const (
	IDEPSMobileIdentity         wire.ElementID = 0x50
	IDOldPTMSISignature         wire.ElementID = 0x19
	IDLastVisitedTAI            wire.ElementID = 0x52
	IDEMMCause                  wire.ElementID = 0x53
	IDTAIList                   wire.ElementID = 0x54
	IDNonceUE                   wire.ElementID = 0x55
	IDNonceMNC                  wire.ElementID = 0x56
	IDT3423                     wire.ElementID = 0x59
	IDT3442                     wire.ElementID = 0x5b
	IDDRXParameter              wire.ElementID = 0x5c
	IDT3412Extended             wire.ElementID = 0x5e
	IDT3346                     wire.ElementID = 0x5f
	IDT3402                     wire.ElementID = 0x17
	IDMSNetworkCapability       wire.ElementID = 0x31
	IDAuthFailureParameter      wire.ElementID = 0x30
	IDEquivalentPLMNs           wire.ElementID = 0x4a
	IDEmergencyNumberList       wire.ElementID = 0x34
	IDEPSNetworkFeatureSupport  wire.ElementID = 0x64
	IDESMMessageContainer       wire.ElementID = 0x78
	IDReplayedNASContainer      wire.ElementID = 0x79
	IDIMEISVRequest             wire.ElementID = 0xc0
	IDTMSIStatus                wire.ElementID = 0x90
	IDAdditionalUpdateType      wire.ElementID = 0xf0
	IDT3412                     wire.ElementID = 0x101
	IDUENetworkCapability       wire.ElementID = 0x102
	IDNASKeySetIdentifier       wire.ElementID = 0x103
	IDNASSecurityAlgorithms     wire.ElementID = 0x104
	IDUESecurityCapability      wire.ElementID = 0x105
	IDAuthParameterRAND         wire.ElementID = 0x106
	IDAuthParameterAUTN         wire.ElementID = 0x107
	IDAuthResponseParameter     wire.ElementID = 0x108
	IDIdentityType              wire.ElementID = 0x109
	IDNASMessageContainer       wire.ElementID = 0x10a
	IDAdditionalUpdateResult    wire.ElementID = 0x10b
)

// ESM information elements (TS 24.301 9.9.4).
const (
	IDProtocolConfigOptions wire.ElementID = 0x27
	IDAccessPointName       wire.ElementID = 0x28
	IDNegotiatedQoS         wire.ElementID = 0x30
	IDNBIFOMContainer       wire.ElementID = 0x33
	IDT3396                 wire.ElementID = 0x37
	IDESMCause              wire.ElementID = 0x58
	IDLinkedTI              wire.ElementID = 0x5d
	IDAPNAMBR               wire.ElementID = 0x5e
	IDRadioPriority         wire.ElementID = 0x80
	IDESMInfoTransferFlag   wire.ElementID = 0xd0
	IDDeviceProperties      wire.ElementID = 0xc0
	IDEPSQoS                wire.ElementID = 0x201
	IDPDNAddress            wire.ElementID = 0x202
)

type codecTable map[wire.ElementID]wire.Codec

func (t codecTable) Lookup(id wire.ElementID) (wire.Codec, bool) {
	c, ok := t[id]
	return c, ok
}

func mergeTables(tables ...codecTable) codecTable {
	out := make(codecTable)
	for _, t := range tables {
		for id, c := range t {
			out[id] = c
		}
	}
	return out
}
