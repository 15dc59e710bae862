package nas

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/epsnet/naseps/internal/cursor"
	"github.com/epsnet/naseps/internal/security"
	"github.com/epsnet/naseps/internal/testutil/testlog"
	"github.com/epsnet/naseps/internal/wire"
)

// attachRequest is a plain EMM attach request: attach type 1, KSI 2,
// IMSI 001010123456789, EEA/EIA bitmaps, and an embedded PDN
// connectivity request as the ESM message container.
func attachRequest() []byte {
	return []byte{
		0x07, 0x41, 0x21,
		// EPS mobile identity, LV
		0x08, 0x09, 0x10, 0x10, 0x10, 0x32, 0x54, 0x76, 0x98,
		// UE network capability, LV
		0x02, 0xe0, 0xe0,
		// ESM message container, LV-E: PDN connectivity request
		0x00, 0x04, 0x02, 0x01, 0xd0, 0x31,
	}
}

func TestDecodeAttachRequest(t *testing.T) {
	testlog.Start(t)
	m := Decode(attachRequest(), Config{})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	if m.Discriminator != PDMobilityManagement || m.MessageType != MsgAttachRequest {
		t.Fatalf("pd=%d type=0x%02x", m.Discriminator, m.MessageType)
	}
	if m.MessageName != "Attach request" {
		t.Fatalf("name %q", m.MessageName)
	}
	if len(m.Leading) != 2 || m.Leading[0].Value != 1 || m.Leading[1].Value != 2 {
		t.Fatalf("leading fields %+v", m.Leading)
	}
	if len(m.Elements) != 3 {
		t.Fatalf("got %d elements, want 3", len(m.Elements))
	}

	e, ok := m.Element(IDEPSMobileIdentity)
	if !ok {
		t.Fatalf("EPS mobile identity missing")
	}
	mi := e.Payload.(*MobileIdentity)
	if mi.TypeName != "IMSI" || mi.Digits != "001010123456789" {
		t.Fatalf("identity %+v", mi)
	}

	e, ok = m.Element(IDESMMessageContainer)
	if !ok {
		t.Fatalf("ESM message container missing")
	}
	inner := e.Payload.(*DecodedMessage)
	if inner.MessageName != "PDN connectivity request" {
		t.Fatalf("inner name %q", inner.MessageName)
	}
	if inner.BearerID != 0 || inner.PTI != 1 {
		t.Fatalf("inner bearer=%d pti=%d", inner.BearerID, inner.PTI)
	}
	if len(inner.Leading) != 2 || inner.Leading[0].Value != 1 || inner.Leading[1].Value != 3 {
		t.Fatalf("inner leading %+v", inner.Leading)
	}
}

func TestDecodeIsIdempotent(t *testing.T) {
	data := attachRequest()
	a := Decode(data, Config{})
	b := Decode(data, Config{})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("two decodes of one buffer differ (-first +second):\n%s", diff)
	}
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	data := attachRequest()
	saved := append([]byte(nil), data...)
	Decode(data, Config{})
	if !bytes.Equal(data, saved) {
		t.Fatalf("decode mutated the input buffer")
	}
}

func TestOptionalOverrunKeepsPriorElements(t *testing.T) {
	// Additional GUTI tag present, declared length overruns the buffer.
	data := append(attachRequest(), 0x50, 0x0b, 0x01)
	m := Decode(data, Config{})
	if !errors.Is(m.Err, cursor.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", m.Err)
	}
	if len(m.Elements) != 3 {
		t.Fatalf("prior elements lost: %d", len(m.Elements))
	}
}

func TestMissingMandatorySurfacesOnMessage(t *testing.T) {
	// Security mode reject with its mandatory cause cut off.
	m := Decode([]byte{0x07, 0x5f}, Config{})
	var mm *wire.MissingMandatoryError
	if !errors.As(m.Err, &mm) {
		t.Fatalf("expected MissingMandatoryError, got %v", m.Err)
	}
	if mm.ID != IDEMMCause {
		t.Fatalf("missing 0x%02x", uint16(mm.ID))
	}
}

func TestMalformedElementBecomesNotice(t *testing.T) {
	// Identity response carrying a GUTI with too few octets: the walk
	// finishes, the element is kept raw, the failure is a notice.
	m := Decode([]byte{0x07, 0x56, 0x03, 0x06, 0x00, 0x00}, Config{})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	if len(m.Notices) != 1 {
		t.Fatalf("got %d notices, want 1", len(m.Notices))
	}
	e, ok := m.Element(IDMobileIdentity)
	if !ok {
		t.Fatalf("element dropped with its notice")
	}
	if e.Payload != nil {
		t.Fatalf("malformed element kept payload %v", e.Payload)
	}
}

func TestTruncationSweepNeverPanics(t *testing.T) {
	data := attachRequest()
	for n := 0; n < len(data); n++ {
		m := Decode(data[:n], Config{})
		if m == nil {
			t.Fatalf("prefix %d: nil message", n)
		}
		if m.Err == nil {
			t.Fatalf("prefix %d decoded cleanly", n)
		}
	}
}

func TestUnknownProtocolDiscriminator(t *testing.T) {
	m := Decode([]byte{0x03, 0x00}, Config{})
	if !errors.Is(m.Err, ErrUnknownProtocolDiscriminator) {
		t.Fatalf("got %v", m.Err)
	}
	if m.Discriminator != 0x03 {
		t.Fatalf("discriminator %d", m.Discriminator)
	}
}

func TestUnknownMessageType(t *testing.T) {
	m := Decode([]byte{0x07, 0x40}, Config{})
	if !errors.Is(m.Err, ErrUnknownMessageType) {
		t.Fatalf("got %v", m.Err)
	}
	if m.MessageType != 0x40 {
		t.Fatalf("type octet not preserved: 0x%02x", m.MessageType)
	}
}

func TestRecognizedOpaqueBody(t *testing.T) {
	m := Decode([]byte{0x07, 0x48, 0xde, 0xad}, Config{})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	if m.MessageName != "Tracking area update request" {
		t.Fatalf("name %q", m.MessageName)
	}
	if !bytes.Equal(m.Opaque, []byte{0xde, 0xad}) {
		t.Fatalf("opaque %v", m.Opaque)
	}
}

func TestTrailingBytesAreInformational(t *testing.T) {
	data := append(attachRequest(), 0xde, 0xad)
	m := Decode(data, Config{})
	if m.Err != nil {
		t.Fatalf("trailing bytes failed the decode: %v", m.Err)
	}
	if !bytes.Equal(m.Trailing, []byte{0xde, 0xad}) {
		t.Fatalf("trailing %v", m.Trailing)
	}
}

func TestEmptyInput(t *testing.T) {
	m := Decode(nil, Config{})
	if !errors.Is(m.Err, cursor.ErrOutOfBounds) {
		t.Fatalf("got %v", m.Err)
	}
}

func TestServiceRequest(t *testing.T) {
	m := Decode([]byte{0xc7, 0x2a, 0x12, 0x34}, Config{})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	if m.MessageName != "Service request" {
		t.Fatalf("name %q", m.MessageName)
	}
	sr := m.ServiceRequest
	if sr == nil {
		t.Fatalf("no service request body")
	}
	if sr.KSI != 1 || sr.Sequence != 10 || sr.ShortMAC != 0x1234 {
		t.Fatalf("service request %+v", sr)
	}
	if len(m.Elements) != 0 {
		t.Fatalf("service request entered the generic dispatch path")
	}
}

func TestServiceRequestTruncated(t *testing.T) {
	m := Decode([]byte{0xc7, 0x2a, 0x12}, Config{})
	if !errors.Is(m.Err, cursor.ErrOutOfBounds) {
		t.Fatalf("got %v", m.Err)
	}
}

func TestProtectedWithoutKey(t *testing.T) {
	testlog.Start(t)
	inner := []byte{0x9c, 0x7e, 0x11, 0x03}
	data := append([]byte{0x27, 0xde, 0xad, 0xbe, 0xef, 0x05}, inner...)
	m := Decode(data, Config{})
	if !errors.Is(m.Err, security.ErrDecipherUnavailable) {
		t.Fatalf("got %v", m.Err)
	}
	if !bytes.Equal(m.Ciphered, inner) {
		t.Fatalf("ciphered span %v, want %v", m.Ciphered, inner)
	}
	if m.Envelope == nil || m.Envelope.Seq != 5 {
		t.Fatalf("envelope %+v", m.Envelope)
	}
	if m.SecurityHeader != security.HeaderIntegrityCiphered {
		t.Fatalf("header %v", m.SecurityHeader)
	}
}

func TestProtectedRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x5a}, security.KeySize)
	plain := attachRequest()
	ct, err := security.Encipher(key, security.DirectionDownlink, 7, plain)
	if err != nil {
		t.Fatalf("encipher: %v", err)
	}
	data := append([]byte{0x27, 0x01, 0x02, 0x03, 0x04, 0x07}, ct...)

	m := Decode(data, Config{Key: key, Direction: security.DirectionDownlink})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	if !m.Deciphered {
		t.Fatalf("message not marked deciphered")
	}
	if m.MessageName != "Attach request" {
		t.Fatalf("name %q", m.MessageName)
	}
	if m.Envelope == nil || m.Envelope.Seq != 7 {
		t.Fatalf("envelope %+v", m.Envelope)
	}
}

func TestWrongDirectionYieldsGarbage(t *testing.T) {
	key := bytes.Repeat([]byte{0x5a}, security.KeySize)
	ct, err := security.Encipher(key, security.DirectionDownlink, 7, attachRequest())
	if err != nil {
		t.Fatalf("encipher: %v", err)
	}
	data := append([]byte{0x27, 0x01, 0x02, 0x03, 0x04, 0x07}, ct...)

	m := Decode(data, Config{Key: key, Direction: security.DirectionUplink})
	if m.Err == nil && m.MessageName == "Attach request" {
		t.Fatalf("wrong-direction keystream still produced the original message")
	}
}

func TestZeroMACHeuristic(t *testing.T) {
	// Ciphered-flagged header, all-zero MAC, plaintext body: the clear
	// interpretation wins without touching the key.
	data := append([]byte{0x27, 0x00, 0x00, 0x00, 0x00, 0x00}, attachRequest()...)
	m := Decode(data, Config{})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	if !m.HeuristicPlain {
		t.Fatalf("heuristic not flagged")
	}
	if m.MessageName != "Attach request" {
		t.Fatalf("name %q", m.MessageName)
	}
}

func TestZeroMACHeuristicRejectsGarbage(t *testing.T) {
	// Zero MAC but the body does not decode in the clear: back to the
	// decipher path, which fails closed without a key.
	data := []byte{0x27, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff}
	m := Decode(data, Config{})
	if !errors.Is(m.Err, security.ErrDecipherUnavailable) {
		t.Fatalf("got %v", m.Err)
	}
	if len(m.Ciphered) != 2 {
		t.Fatalf("ciphered span %v", m.Ciphered)
	}
}

func TestIntegrityOnlyBodyDecodesInTheClear(t *testing.T) {
	data := append([]byte{0x17, 0x0a, 0x0b, 0x0c, 0x0d, 0x09}, attachRequest()...)
	m := Decode(data, Config{})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	if m.Deciphered || m.HeuristicPlain {
		t.Fatalf("integrity-only body took a cipher path: %+v", m)
	}
	if m.MessageName != "Attach request" {
		t.Fatalf("name %q", m.MessageName)
	}
}

func TestForcePlain(t *testing.T) {
	data := append([]byte{0x27, 0x0a, 0x0b, 0x0c, 0x0d, 0x09}, attachRequest()...)
	m := Decode(data, Config{ForcePlain: true})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	if m.MessageName != "Attach request" {
		t.Fatalf("name %q", m.MessageName)
	}
}

func TestProtectedEnvelopeTruncated(t *testing.T) {
	for n := 1; n < 6; n++ {
		data := []byte{0x27, 0x01, 0x02, 0x03, 0x04, 0x05}[:n]
		m := Decode(data, Config{})
		if !errors.Is(m.Err, cursor.ErrOutOfBounds) {
			t.Fatalf("len %d: got %v", n, m.Err)
		}
	}
}

func TestHalfOctetIdentityRequest(t *testing.T) {
	m := Decode([]byte{0x07, 0x55, 0x21}, Config{})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	e, ok := m.Element(IDIdentityType)
	if !ok {
		t.Fatalf("identity type missing")
	}
	c := e.Payload.(*Cause)
	if c.Code != identityIMSI || c.Name != "IMSI" {
		t.Fatalf("identity type %+v", c)
	}
	e, ok = m.Element(IDSpareHalfOctet)
	if !ok {
		t.Fatalf("spare half octet missing")
	}
	if !bytes.Equal(e.Payload.([]byte), []byte{0x02}) {
		t.Fatalf("spare nibble %v", e.Payload)
	}
}

func TestSecurityModeCommand(t *testing.T) {
	data := []byte{0x07, 0x5d, 0x12, 0x06, 0x02, 0xe0, 0xe0, 0xc1}
	m := Decode(data, Config{})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	if len(m.Elements) != 5 {
		t.Fatalf("got %d elements, want 5", len(m.Elements))
	}
	e, _ := m.Element(IDNASSecurityAlgorithms)
	alg := e.Payload.(*NASSecurityAlgorithms)
	if alg.Ciphering != 1 || alg.Integrity != 2 {
		t.Fatalf("algorithms %+v", alg)
	}
	e, _ = m.Element(IDIMEISVRequest)
	if !bytes.Equal(e.Payload.([]byte), []byte{0x01}) {
		t.Fatalf("IMEISV request nibble %v", e.Payload)
	}
}

func TestActivateDefaultBearerRequest(t *testing.T) {
	data := []byte{
		0x52, 0x01, 0xc1,
		// EPS QoS, LV: QCI 9 only
		0x01, 0x09,
		// Access point name, LV
		0x09, 0x08, 'i', 'n', 't', 'e', 'r', 'n', 'e', 't',
		// PDN address, LV: Non-IP
		0x01, 0x05,
		// ESM cause, TV
		0x58, 0x32,
		// Protocol configuration options, TLV
		0x27, 0x04, 0x80, 0x80, 0x21, 0x00,
	}
	m := Decode(data, Config{})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	if m.Discriminator != PDSessionManagement || m.BearerID != 5 || m.PTI != 1 {
		t.Fatalf("pd=%d bearer=%d pti=%d", m.Discriminator, m.BearerID, m.PTI)
	}

	e, _ := m.Element(IDEPSQoS)
	q := e.Payload.(*EPSQoS)
	if q.QCI != 9 || q.HasRates {
		t.Fatalf("qos %+v", q)
	}
	e, _ = m.Element(IDAccessPointName)
	if e.Payload.(string) != "internet" {
		t.Fatalf("apn %v", e.Payload)
	}
	e, _ = m.Element(IDPDNAddress)
	addr := e.Payload.(*PDNAddress)
	if addr.TypeName != "Non-IP" || addr.IPv4 != nil || addr.IPv6Interface != nil {
		t.Fatalf("address %+v", addr)
	}
	e, _ = m.Element(IDESMCause)
	if e.Payload.(*Cause).Code != 50 {
		t.Fatalf("cause %+v", e.Payload)
	}
	e, _ = m.Element(IDProtocolConfigOptions)
	pco := e.Payload.(*PCO)
	if len(pco.Entries) != 1 || pco.Entries[0].ID != 0x8021 {
		t.Fatalf("pco %+v", pco)
	}
}

func TestEMMInformationNetworkName(t *testing.T) {
	data := []byte{0x07, 0x61, 0x43, 0x06, 0x85, 0xe8, 0x32, 0x9b, 0xfd, 0x06}
	m := Decode(data, Config{})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	e, ok := m.Element(IDNetworkNameFull)
	if !ok {
		t.Fatalf("network name missing")
	}
	nn := e.Payload.(*NetworkName)
	if nn.Text != "hello" {
		t.Fatalf("text %q", nn.Text)
	}
}

func TestNetworkNameTopSeptet(t *testing.T) {
	// The highest septet value rides a network name element; the full
	// decode path must map it, not fall over on it.
	data := []byte{0x07, 0x61, 0x43, 0x02, 0x81, 0x7f}
	m := Decode(data, Config{})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	e, ok := m.Element(IDNetworkNameFull)
	if !ok {
		t.Fatalf("network name missing")
	}
	if nn := e.Payload.(*NetworkName); nn.Text != "à" {
		t.Fatalf("text %q", nn.Text)
	}
}

type fakeHandoff struct{}

func (fakeHandoff) TryDecode(name string, data []byte) (any, bool) {
	return fmt.Sprintf("%s:%d", name, len(data)), true
}

func TestContainerHandoff(t *testing.T) {
	data := []byte{0x07, 0x62, 0x03, 0x01, 0x02, 0x03}
	m := Decode(data, Config{Handoff: fakeHandoff{}})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	e, _ := m.Element(IDNASMessageContainer)
	if e.Payload.(string) != "sms:3" {
		t.Fatalf("handoff payload %v", e.Payload)
	}
}

func TestContainerWithoutHandoffStaysRaw(t *testing.T) {
	data := []byte{0x07, 0x62, 0x03, 0x01, 0x02, 0x03}
	m := Decode(data, Config{})
	e, _ := m.Element(IDNASMessageContainer)
	if !bytes.Equal(e.Payload.([]byte), []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("payload %v", e.Payload)
	}
}

func TestSinkSeesElementsInWireOrder(t *testing.T) {
	var seen []wire.ElementID
	sink := func(id wire.ElementID, name string, raw []byte, payload any) {
		seen = append(seen, id)
	}
	m := Decode(attachRequest(), Config{Sink: sink})
	if m.Err != nil {
		t.Fatalf("decode: %v", m.Err)
	}
	want := []wire.ElementID{IDEPSMobileIdentity, IDUENetworkCapability, IDESMMessageContainer}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("sink order (-want +got):\n%s", diff)
	}
}
