package nas

import "github.com/epsnet/naseps/internal/wire"

// EMM message types (TS 24.301 9.8).
const (
	MsgAttachRequest          uint8 = 0x41
	MsgAttachAccept           uint8 = 0x42
	MsgAttachComplete         uint8 = 0x43
	MsgAttachReject           uint8 = 0x44
	MsgDetachRequest          uint8 = 0x45
	MsgDetachAccept           uint8 = 0x46
	MsgTAURequest             uint8 = 0x48
	MsgTAUAccept              uint8 = 0x49
	MsgTAUComplete            uint8 = 0x4a
	MsgTAUReject              uint8 = 0x4b
	MsgExtendedServiceRequest uint8 = 0x4c
	MsgServiceReject          uint8 = 0x4e
	MsgGUTIReallocCommand     uint8 = 0x50
	MsgGUTIReallocComplete    uint8 = 0x51
	MsgAuthRequest            uint8 = 0x52
	MsgAuthResponse           uint8 = 0x53
	MsgAuthReject             uint8 = 0x54
	MsgIdentityRequest        uint8 = 0x55
	MsgIdentityResponse       uint8 = 0x56
	MsgAuthFailure            uint8 = 0x5c
	MsgSecurityModeCommand    uint8 = 0x5d
	MsgSecurityModeComplete   uint8 = 0x5e
	MsgSecurityModeReject     uint8 = 0x5f
	MsgEMMStatus              uint8 = 0x60
	MsgEMMInformation         uint8 = 0x61
	MsgDownlinkNASTransport   uint8 = 0x62
	MsgUplinkNASTransport     uint8 = 0x63
	MsgCSServiceNotification  uint8 = 0x64
)

// ESM message types (TS 24.301 9.8).
const (
	MsgActDefaultBearerRequest   uint8 = 0xc1
	MsgActDefaultBearerAccept    uint8 = 0xc2
	MsgActDefaultBearerReject    uint8 = 0xc3
	MsgActDedicatedBearerRequest uint8 = 0xc5
	MsgActDedicatedBearerAccept  uint8 = 0xc6
	MsgActDedicatedBearerReject  uint8 = 0xc7
	MsgModifyBearerRequest       uint8 = 0xc9
	MsgModifyBearerAccept        uint8 = 0xca
	MsgModifyBearerReject        uint8 = 0xcb
	MsgDeactBearerRequest        uint8 = 0xcd
	MsgDeactBearerAccept         uint8 = 0xce
	MsgPDNConnectivityRequest    uint8 = 0xd0
	MsgPDNConnectivityReject     uint8 = 0xd1
	MsgPDNDisconnectRequest      uint8 = 0xd2
	MsgPDNDisconnectReject       uint8 = 0xd3
	MsgESMInformationRequest     uint8 = 0xd9
	MsgESMInformationResponse    uint8 = 0xda
	MsgESMStatus                 uint8 = 0xe8
)

// leadingField is one fixed field declared ahead of the IE sequence,
// consumed right after the message type octet. Half-octet fields pair
// up within a byte, first field in the low nibble (TS 24.007).
type leadingField struct {
	name   string
	nibble bool
}

func nib(name string) leadingField { return leadingField{name: name, nibble: true} }

// msgEntry is one dispatch table row. A nil grammar marks a message
// type that is recognized but decoded as an opaque body.
type msgEntry struct {
	name    string
	leading []leadingField
	grammar wire.Grammar
}

var emmMessages = map[uint8]msgEntry{
	MsgAttachRequest: {
		name:    "Attach request",
		leading: []leadingField{nib("EPS attach type"), nib("NAS key set identifier")},
		grammar: wire.Grammar{
			wire.Mand(IDEPSMobileIdentity),
			wire.Mand(IDUENetworkCapability),
			wire.Mand(IDESMMessageContainer),
			wire.Opt(0x19, IDOldPTMSISignature),
			wire.OptAs(0x50, IDEPSMobileIdentity, wire.ShapeTLV),
			wire.Opt(0x52, IDLastVisitedTAI),
			wire.Opt(0x5c, IDDRXParameter),
			wire.Opt(0x31, IDMSNetworkCapability),
			wire.Opt(0x13, IDLocationAreaID),
			wire.Opt(0x90, IDTMSIStatus),
			wire.Opt(0xf0, IDAdditionalUpdateType),
		},
	},
	MsgAttachAccept: {
		name:    "Attach accept",
		leading: []leadingField{nib("EPS attach result"), nib("Spare half octet")},
		grammar: wire.Grammar{
			wire.Mand(IDT3412),
			wire.Mand(IDTAIList),
			wire.Mand(IDESMMessageContainer),
			wire.OptAs(0x50, IDEPSMobileIdentity, wire.ShapeTLV),
			wire.Opt(0x13, IDLocationAreaID),
			wire.OptAs(0x23, IDMobileIdentity, wire.ShapeTLV),
			wire.OptAs(0x53, IDEMMCause, wire.ShapeTV),
			wire.Opt(0x17, IDT3402),
			wire.Opt(0x59, IDT3423),
			wire.Opt(0x4a, IDEquivalentPLMNs),
			wire.Opt(0x34, IDEmergencyNumberList),
			wire.Opt(0x64, IDEPSNetworkFeatureSupport),
			wire.Opt(0xf0, IDAdditionalUpdateResult),
			wire.Opt(0x5e, IDT3412Extended),
		},
	},
	MsgAttachComplete: {
		name:    "Attach complete",
		grammar: wire.Grammar{wire.Mand(IDESMMessageContainer)},
	},
	MsgAttachReject: {
		name: "Attach reject",
		grammar: wire.Grammar{
			wire.Mand(IDEMMCause),
			wire.OptAs(0x78, IDESMMessageContainer, wire.ShapeTLVE),
			wire.Opt(0x5f, IDT3346),
		},
	},
	MsgDetachRequest: {
		name:    "Detach request",
		leading: []leadingField{nib("Detach type"), nib("NAS key set identifier")},
		grammar: wire.Grammar{wire.Mand(IDEPSMobileIdentity)},
	},
	MsgDetachAccept: {name: "Detach accept", grammar: wire.Grammar{}},
	MsgServiceReject: {
		name: "Service reject",
		grammar: wire.Grammar{
			wire.Mand(IDEMMCause),
			wire.Opt(0x5b, IDT3442),
			wire.Opt(0x5f, IDT3346),
		},
	},
	MsgAuthRequest: {
		name:    "Authentication request",
		leading: []leadingField{nib("NAS key set identifier"), nib("Spare half octet")},
		grammar: wire.Grammar{
			wire.Mand(IDAuthParameterRAND),
			wire.Mand(IDAuthParameterAUTN),
		},
	},
	MsgAuthResponse: {
		name:    "Authentication response",
		grammar: wire.Grammar{wire.Mand(IDAuthResponseParameter)},
	},
	MsgAuthReject: {name: "Authentication reject", grammar: wire.Grammar{}},
	MsgAuthFailure: {
		name: "Authentication failure",
		grammar: wire.Grammar{
			wire.Mand(IDEMMCause),
			wire.Opt(0x30, IDAuthFailureParameter),
		},
	},
	MsgIdentityRequest: {
		name: "Identity request",
		grammar: wire.Grammar{
			wire.Mand(IDIdentityType),
			wire.Mand(IDSpareHalfOctet),
		},
	},
	MsgIdentityResponse: {
		name:    "Identity response",
		grammar: wire.Grammar{wire.Mand(IDMobileIdentity)},
	},
	MsgSecurityModeCommand: {
		name: "Security mode command",
		grammar: wire.Grammar{
			wire.Mand(IDNASSecurityAlgorithms),
			wire.Mand(IDNASKeySetIdentifier),
			wire.Mand(IDSpareHalfOctet),
			wire.Mand(IDUESecurityCapability),
			wire.Opt(0xc0, IDIMEISVRequest),
			wire.Opt(0x55, IDNonceUE),
			wire.Opt(0x56, IDNonceMNC),
		},
	},
	MsgSecurityModeComplete: {
		name: "Security mode complete",
		grammar: wire.Grammar{
			wire.OptAs(0x23, IDMobileIdentity, wire.ShapeTLV),
			wire.Opt(0x79, IDReplayedNASContainer),
		},
	},
	MsgSecurityModeReject: {
		name:    "Security mode reject",
		grammar: wire.Grammar{wire.Mand(IDEMMCause)},
	},
	MsgEMMStatus: {
		name:    "EMM status",
		grammar: wire.Grammar{wire.Mand(IDEMMCause)},
	},
	MsgEMMInformation: {
		name: "EMM information",
		grammar: wire.Grammar{
			wire.Opt(0x43, IDNetworkNameFull),
			wire.Opt(0x45, IDNetworkNameShort),
			wire.Opt(0x46, IDLocalTimeZone),
			wire.Opt(0x47, IDUniversalTimeZone),
			wire.Opt(0x49, IDDaylightSavingTime),
		},
	},
	MsgDownlinkNASTransport: {
		name:    "Downlink NAS transport",
		grammar: wire.Grammar{wire.Mand(IDNASMessageContainer)},
	},
	MsgUplinkNASTransport: {
		name:    "Uplink NAS transport",
		grammar: wire.Grammar{wire.Mand(IDNASMessageContainer)},
	},

	// Recognized but decoded as opaque bodies.
	MsgTAURequest:             {name: "Tracking area update request"},
	MsgTAUAccept:              {name: "Tracking area update accept"},
	MsgTAUComplete:            {name: "Tracking area update complete"},
	MsgTAUReject:              {name: "Tracking area update reject"},
	MsgExtendedServiceRequest: {name: "Extended service request"},
	MsgGUTIReallocCommand:     {name: "GUTI reallocation command"},
	MsgGUTIReallocComplete:    {name: "GUTI reallocation complete"},
	MsgCSServiceNotification:  {name: "CS service notification"},
}

var esmMessages = map[uint8]msgEntry{
	MsgActDefaultBearerRequest: {
		name: "Activate default EPS bearer context request",
		grammar: wire.Grammar{
			wire.Mand(IDEPSQoS),
			wire.Mand(IDAccessPointName),
			wire.Mand(IDPDNAddress),
			wire.Opt(0x5d, IDLinkedTI),
			wire.Opt(0x30, IDNegotiatedQoS),
			wire.Opt(0x80, IDRadioPriority),
			wire.Opt(0x5e, IDAPNAMBR),
			wire.OptAs(0x58, IDESMCause, wire.ShapeTV),
			wire.Opt(0x27, IDProtocolConfigOptions),
		},
	},
	MsgActDefaultBearerAccept: {
		name:    "Activate default EPS bearer context accept",
		grammar: wire.Grammar{wire.Opt(0x27, IDProtocolConfigOptions)},
	},
	MsgActDefaultBearerReject: {
		name: "Activate default EPS bearer context reject",
		grammar: wire.Grammar{
			wire.Mand(IDESMCause),
			wire.Opt(0x27, IDProtocolConfigOptions),
		},
	},
	MsgPDNConnectivityRequest: {
		name:    "PDN connectivity request",
		leading: []leadingField{nib("Request type"), nib("PDN type")},
		grammar: wire.Grammar{
			wire.Opt(0xd0, IDESMInfoTransferFlag),
			wire.OptAs(0x28, IDAccessPointName, wire.ShapeTLV),
			wire.Opt(0x27, IDProtocolConfigOptions),
			wire.Opt(0xc0, IDDeviceProperties),
			wire.Opt(0x33, IDNBIFOMContainer),
		},
	},
	MsgPDNConnectivityReject: {
		name: "PDN connectivity reject",
		grammar: wire.Grammar{
			wire.Mand(IDESMCause),
			wire.Opt(0x27, IDProtocolConfigOptions),
			wire.Opt(0x37, IDT3396),
		},
	},
	MsgESMInformationRequest: {name: "ESM information request", grammar: wire.Grammar{}},
	MsgESMInformationResponse: {
		name: "ESM information response",
		grammar: wire.Grammar{
			wire.OptAs(0x28, IDAccessPointName, wire.ShapeTLV),
			wire.Opt(0x27, IDProtocolConfigOptions),
		},
	},
	MsgESMStatus: {
		name:    "ESM status",
		grammar: wire.Grammar{wire.Mand(IDESMCause)},
	},

	// Recognized but decoded as opaque bodies.
	MsgActDedicatedBearerRequest: {name: "Activate dedicated EPS bearer context request"},
	MsgActDedicatedBearerAccept:  {name: "Activate dedicated EPS bearer context accept"},
	MsgActDedicatedBearerReject:  {name: "Activate dedicated EPS bearer context reject"},
	MsgModifyBearerRequest:       {name: "Modify EPS bearer context request"},
	MsgModifyBearerAccept:        {name: "Modify EPS bearer context accept"},
	MsgModifyBearerReject:        {name: "Modify EPS bearer context reject"},
	MsgDeactBearerRequest:        {name: "Deactivate EPS bearer context request"},
	MsgDeactBearerAccept:         {name: "Deactivate EPS bearer context accept"},
	MsgPDNDisconnectRequest:      {name: "PDN disconnect request"},
	MsgPDNDisconnectReject:       {name: "PDN disconnect reject"},
}
