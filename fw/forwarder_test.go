package fw

import (
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/named-data/mnfd/face"
	"github.com/named-data/mnfd/ndn"
	"github.com/named-data/mnfd/ndn/mgmt"
	"github.com/named-data/mnfd/ndn/security"
	"github.com/named-data/mnfd/ndn/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addInternalFace(f *Forwarder, uri string) (uint64, *face.InternalEndpoint) {
	transport, endpoint := face.MakeInternalPair()
	return f.AddFace(uri, transport), endpoint
}

func encodeInterest(t *testing.T, nameStr string, nonce []byte) []byte {
	name, err := ndn.NameFromString(nameStr)
	require.NoError(t, err)
	interest := ndn.NewInterest(name)
	require.NoError(t, interest.SetNonce(nonce))
	block, err := interest.Encode()
	require.NoError(t, err)
	wire, err := block.Wire()
	require.NoError(t, err)
	return wire
}

func encodeData(t *testing.T, nameStr string, content []byte) []byte {
	name, err := ndn.NameFromString(nameStr)
	require.NoError(t, err)
	data := ndn.NewData(name, content)
	block, err := data.Encode()
	require.NoError(t, err)
	wire, err := block.Wire()
	require.NoError(t, err)
	return wire
}

func drain(endpoint *face.InternalEndpoint) [][]byte {
	frames := make([][]byte, 0)
	for frame := endpoint.Receive(); frame != nil; frame = endpoint.Receive() {
		frames = append(frames, frame)
	}
	return frames
}

func mustName(t *testing.T, nameStr string) *ndn.Name {
	name, err := ndn.NameFromString(nameStr)
	require.NoError(t, err)
	return name
}

func TestBasicForwardAndSatisfy(t *testing.T) {
	forwarder := NewForwarder()
	_, endpointA := addInternalFace(forwarder, "internal://a")
	faceB, endpointB := addInternalFace(forwarder, "internal://b")
	require.True(t, forwarder.AddRoute(mustName(t, "/a"), faceB, 0))

	// A sends an Interest; B receives the identical bytes
	interestWire := encodeInterest(t, "/a/x", []byte{0xAA, 0x00, 0x00, 0x00})
	require.NoError(t, endpointA.Send(interestWire))
	require.NoError(t, forwarder.ProcessEvents())

	forwarded := drain(endpointB)
	require.Len(t, forwarded, 1)
	assert.Equal(t, interestWire, forwarded[0])
	assert.Equal(t, 1, forwarder.Pit().Size())

	// B answers with Data; A receives the identical bytes and the entry is consumed
	dataWire := encodeData(t, "/a/x/1", []byte("content"))
	require.NoError(t, endpointB.Send(dataWire))
	require.NoError(t, forwarder.ProcessEvents())

	satisfied := drain(endpointA)
	require.Len(t, satisfied, 1)
	assert.Equal(t, dataWire, satisfied[0])
	require.Equal(t, 1, forwarder.Pit().Size())
	assert.Nil(t, forwarder.Pit().Entries()[0].InFace())
}

func TestDuplicateNonceDrop(t *testing.T) {
	forwarder := NewForwarder()
	_, endpointA := addInternalFace(forwarder, "internal://a")
	faceB, endpointB := addInternalFace(forwarder, "internal://b")
	require.True(t, forwarder.AddRoute(mustName(t, "/a"), faceB, 0))

	interestWire := encodeInterest(t, "/a/x", []byte{0xAA, 0x00, 0x00, 0x00})
	require.NoError(t, endpointA.Send(interestWire))
	require.NoError(t, forwarder.ProcessEvents())
	require.Len(t, drain(endpointB), 1)
	require.Equal(t, 1, forwarder.Pit().Size())

	// B loops the same Interest (same nonce) back; it is dropped
	require.NoError(t, endpointB.Send(interestWire))
	require.NoError(t, forwarder.ProcessEvents())

	assert.Empty(t, drain(endpointA))
	assert.Empty(t, drain(endpointB))
	assert.Equal(t, 1, forwarder.Pit().Size())
}

func TestSameFaceRetransmissionForwardsOnce(t *testing.T) {
	forwarder := NewForwarder()
	_, endpointA := addInternalFace(forwarder, "internal://a")
	faceB, endpointB := addInternalFace(forwarder, "internal://b")
	require.True(t, forwarder.AddRoute(mustName(t, "/a"), faceB, 0))

	require.NoError(t, endpointA.Send(encodeInterest(t, "/a/x", []byte{0x01, 0x00, 0x00, 0x00})))
	require.NoError(t, forwarder.ProcessEvents())

	// Retransmission with a fresh nonce on the same face extends timers in place
	require.NoError(t, endpointA.Send(encodeInterest(t, "/a/x", []byte{0x02, 0x00, 0x00, 0x00})))
	require.NoError(t, forwarder.ProcessEvents())

	assert.Len(t, drain(endpointB), 1)
	assert.Equal(t, 1, forwarder.Pit().Size())
}

func TestNewFaceDuplicateSuppresssForwarding(t *testing.T) {
	forwarder := NewForwarder()
	_, endpointA := addInternalFace(forwarder, "internal://a")
	_, endpointB := addInternalFace(forwarder, "internal://b")
	faceC, endpointC := addInternalFace(forwarder, "internal://c")
	require.True(t, forwarder.AddRoute(mustName(t, "/a"), faceC, 0))

	require.NoError(t, endpointA.Send(encodeInterest(t, "/a/x", []byte{0x01, 0x00, 0x00, 0x00})))
	require.NoError(t, forwarder.ProcessEvents())
	require.Len(t, drain(endpointC), 1)

	// The same name from another downstream creates a PIT entry but is not forwarded
	require.NoError(t, endpointB.Send(encodeInterest(t, "/a/x", []byte{0x02, 0x00, 0x00, 0x00})))
	require.NoError(t, forwarder.ProcessEvents())
	assert.Empty(t, drain(endpointC))
	assert.Equal(t, 2, forwarder.Pit().Size())

	// The eventual Data reaches both downstream faces
	dataWire := encodeData(t, "/a/x/1", []byte("content"))
	require.NoError(t, endpointC.Send(dataWire))
	require.NoError(t, forwarder.ProcessEvents())
	assert.Len(t, drain(endpointA), 1)
	assert.Len(t, drain(endpointB), 1)
}

func TestBroadcast(t *testing.T) {
	forwarder := NewForwarder()
	_, endpointA := addInternalFace(forwarder, "internal://a")
	_, endpointB := addInternalFace(forwarder, "internal://b")
	_, endpointC := addInternalFace(forwarder, "internal://c")

	interestWire := encodeInterest(t, "/ndn/broadcast/hello", []byte{0x0B, 0x00, 0x00, 0x00})
	require.NoError(t, endpointA.Send(interestWire))
	require.NoError(t, forwarder.ProcessEvents())

	forwardedB := drain(endpointB)
	forwardedC := drain(endpointC)
	require.Len(t, forwardedB, 1)
	require.Len(t, forwardedC, 1)
	assert.Equal(t, interestWire, forwardedB[0])
	assert.Equal(t, interestWire, forwardedC[0])
	assert.Empty(t, drain(endpointA))
}

func TestLocalhopDroppedFromOrdinaryFace(t *testing.T) {
	forwarder := NewForwarder()
	faceB, _ := addInternalFace(forwarder, "internal://b")
	_, endpointA := addInternalFace(forwarder, "internal://a")
	require.True(t, forwarder.AddRoute(mustName(t, "/localhop"), faceB, 0))

	require.NoError(t, endpointA.Send(encodeInterest(t, "/localhop/foo", []byte{0x01, 0x02, 0x03, 0x04})))
	require.NoError(t, forwarder.ProcessEvents())

	assert.Equal(t, 0, forwarder.Pit().Size())
}

func TestLpWrappedInterestForwardedUnchanged(t *testing.T) {
	forwarder := NewForwarder()
	_, endpointA := addInternalFace(forwarder, "internal://a")
	faceB, endpointB := addInternalFace(forwarder, "internal://b")
	require.True(t, forwarder.AddRoute(mustName(t, "/a"), faceB, 0))

	// Wrap the Interest in an LpPacket; the whole element must be forwarded unchanged
	interestWire := encodeInterest(t, "/a/x", []byte{0x05, 0x06, 0x07, 0x08})
	lpBlock := tlv.NewEmptyBlock(0x64)
	lpBlock.Append(tlv.NewBlock(0x62, []byte{0x11, 0x22})) // PitToken
	lpBlock.Append(tlv.NewBlock(0x50, interestWire))       // Fragment
	lpWire, err := lpBlock.Wire()
	require.NoError(t, err)

	require.NoError(t, endpointA.Send(lpWire))
	require.NoError(t, forwarder.ProcessEvents())

	forwarded := drain(endpointB)
	require.Len(t, forwarded, 1)
	assert.Equal(t, lpWire, forwarded[0])
	assert.Equal(t, 1, forwarder.Pit().Size())
}

func TestNackDropped(t *testing.T) {
	forwarder := NewForwarder()
	_, endpointA := addInternalFace(forwarder, "internal://a")
	faceB, endpointB := addInternalFace(forwarder, "internal://b")
	require.True(t, forwarder.AddRoute(mustName(t, "/a"), faceB, 0))

	// An Interest with a Nack header is dropped unconditionally
	interestWire := encodeInterest(t, "/a/x", []byte{0x09, 0x00, 0x00, 0x00})
	lpBlock := tlv.NewEmptyBlock(0x64)
	nack := tlv.NewEmptyBlock(0x0320)
	nack.Append(tlv.EncodeNNIBlock(0x0321, 150))
	lpBlock.Append(nack)
	lpBlock.Append(tlv.NewBlock(0x50, interestWire))
	lpWire, err := lpBlock.Wire()
	require.NoError(t, err)

	require.NoError(t, endpointA.Send(lpWire))
	require.NoError(t, forwarder.ProcessEvents())

	assert.Empty(t, drain(endpointB))
	assert.Equal(t, 0, forwarder.Pit().Size())
}

func TestMalformedElementDropped(t *testing.T) {
	forwarder := NewForwarder()
	_, endpointA := addInternalFace(forwarder, "internal://a")
	faceB, endpointB := addInternalFace(forwarder, "internal://b")
	require.True(t, forwarder.AddRoute(mustName(t, "/"), faceB, 0))

	// Unrecognized top-level type; dropped without closing the face
	require.NoError(t, endpointA.Send([]byte{0x70, 0x02, 0x01, 0x02}))
	require.NoError(t, forwarder.ProcessEvents())
	assert.Empty(t, drain(endpointB))
	assert.Len(t, forwarder.GetFaces(), 2)

	// The face still works afterwards
	require.NoError(t, endpointA.Send(encodeInterest(t, "/ok", []byte{0x0C, 0x00, 0x00, 0x00})))
	require.NoError(t, forwarder.ProcessEvents())
	assert.Len(t, drain(endpointB), 1)
}

func TestLocalhostRegistration(t *testing.T) {
	forwarder := NewForwarder()
	faceA, endpointA := addInternalFace(forwarder, "internal://a")

	params := mgmt.MakeControlParameters()
	params.Name = mustName(t, "/p")
	paramsBlock, err := params.Encode()
	require.NoError(t, err)
	paramsWire, err := paramsBlock.Wire()
	require.NoError(t, err)

	commandName := mustName(t, "/localhost/nfd/rib/register")
	commandName.Append(ndn.NewGenericNameComponent(paramsWire))
	interest := ndn.NewInterest(commandName)
	interestBlock, err := interest.Encode()
	require.NoError(t, err)
	interestWire, err := interestBlock.Wire()
	require.NoError(t, err)

	require.NoError(t, endpointA.Send(interestWire))
	require.NoError(t, forwarder.ProcessEvents())

	// The route is installed on the incoming face
	routes := forwarder.GetRoutes()
	require.Contains(t, routes, "/p")
	assert.Equal(t, []uint64{faceA}, routes["/p"])

	// The requester receives a Data whose content is a ControlResponse with status 200
	responses := drain(endpointA)
	require.Len(t, responses, 1)
	responseBlock, _, err := tlv.DecodeBlock(responses[0])
	require.NoError(t, err)
	responseData, err := ndn.DecodeData(responseBlock, false)
	require.NoError(t, err)
	assert.True(t, responseData.Name().Equals(commandName))

	controlResponseBlock, _, err := tlv.DecodeBlock(responseData.Content())
	require.NoError(t, err)
	controlResponse, err := mgmt.DecodeControlResponse(controlResponseBlock)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), controlResponse.StatusCode)
	assert.Equal(t, "Success", controlResponse.StatusText)
}

func TestUnrecognizedLocalhostCommandIgnored(t *testing.T) {
	forwarder := NewForwarder()
	_, endpointA := addInternalFace(forwarder, "internal://a")

	require.NoError(t, endpointA.Send(encodeInterest(t, "/localhost/nfd/faces/list", []byte{0x01, 0x01, 0x01, 0x01})))
	require.NoError(t, forwarder.ProcessEvents())

	assert.Empty(t, drain(endpointA))
	assert.Equal(t, 0, forwarder.Pit().Size())
	assert.Empty(t, forwarder.GetRoutes())
}

func TestRemoveFacePurgesReferences(t *testing.T) {
	forwarder := NewForwarder()
	_, endpointA := addInternalFace(forwarder, "internal://a")
	faceB, endpointB := addInternalFace(forwarder, "internal://b")
	_, endpointC := addInternalFace(forwarder, "internal://c")
	require.True(t, forwarder.AddRoute(mustName(t, "/a"), faceB, 0))

	// Run the basic exchange so the PIT entry for A is consumed
	require.NoError(t, endpointA.Send(encodeInterest(t, "/a/x", []byte{0xAA, 0x00, 0x00, 0x00})))
	require.NoError(t, forwarder.ProcessEvents())
	require.Len(t, drain(endpointB), 1)
	require.NoError(t, endpointB.Send(encodeData(t, "/a/x/1", []byte("content"))))
	require.NoError(t, forwarder.ProcessEvents())
	require.Len(t, drain(endpointA), 1)

	forwarder.RemoveFace(faceB)

	// The FIB entry for /a disappears; the consumed PIT entry is unaffected
	assert.Empty(t, forwarder.GetRoutes())
	assert.Len(t, forwarder.GetFaces(), 2)
	require.Equal(t, 1, forwarder.Pit().Size())
	assert.Nil(t, forwarder.Pit().Entries()[0].InFace())

	// Subsequent Data is not sent anywhere
	require.NoError(t, endpointC.Send(encodeData(t, "/a/x/1", []byte("content"))))
	require.NoError(t, forwarder.ProcessEvents())
	assert.Empty(t, drain(endpointA))
	assert.Empty(t, drain(endpointB))
}

func TestRemoveFacePurgesPendingInterests(t *testing.T) {
	forwarder := NewForwarder()
	faceA, endpointA := addInternalFace(forwarder, "internal://a")
	faceB, endpointB := addInternalFace(forwarder, "internal://b")
	require.True(t, forwarder.AddRoute(mustName(t, "/a"), faceB, 0))

	require.NoError(t, endpointA.Send(encodeInterest(t, "/a/x", []byte{0xAA, 0x00, 0x00, 0x00})))
	require.NoError(t, forwarder.ProcessEvents())
	require.Len(t, drain(endpointB), 1)
	require.Equal(t, 1, forwarder.Pit().Size())

	// Removing the downstream face scrubs its pending Interest
	forwarder.RemoveFace(faceA)
	assert.Equal(t, 0, forwarder.Pit().Size())
}

func TestAddRouteUnknownFace(t *testing.T) {
	forwarder := NewForwarder()
	assert.False(t, forwarder.AddRoute(mustName(t, "/a"), 42, 0))
	assert.Empty(t, forwarder.GetRoutes())
}

func TestRemoteRegisterPrefix(t *testing.T) {
	forwarder := NewForwarder()
	remoteFace, remoteEndpoint := addInternalFace(forwarder, "internal://remote")

	var succeeded, failed bool
	prefix := mustName(t, "/p")
	forwarder.RemoteRegisterPrefix(remoteFace, prefix, security.NewDigestKeyChain(),
		mustName(t, "/keys/test"),
		func(p *ndn.Name) { failed = true },
		func(p *ndn.Name) { succeeded = true })
	require.NoError(t, forwarder.ProcessEvents())

	// The signed command leaves only through the designated face
	commands := drain(remoteEndpoint)
	require.Len(t, commands, 1)
	commandBlock, _, err := tlv.DecodeBlock(commands[0])
	require.NoError(t, err)
	command, err := ndn.DecodeInterest(commandBlock)
	require.NoError(t, err)
	assert.True(t, mustName(t, "/localhop/nfd/rib/register").PrefixOf(command.Name()))
	// ControlParameters, timestamp, random value, SignatureInfo, SignatureValue
	assert.Equal(t, 9, command.Name().Size())

	// Simulate the remote forwarder's acknowledgment
	response := mgmt.MakeControlResponse(200, "OK", nil)
	responseBlock, err := response.Encode()
	require.NoError(t, err)
	responseWire, err := responseBlock.Wire()
	require.NoError(t, err)
	responseData := ndn.NewData(command.Name(), responseWire)
	dataBlock, err := responseData.Encode()
	require.NoError(t, err)
	dataWire, err := dataBlock.Wire()
	require.NoError(t, err)
	require.NoError(t, remoteEndpoint.Send(dataWire))
	require.NoError(t, forwarder.ProcessEvents())

	assert.True(t, succeeded)
	assert.False(t, failed)
	// The temporary registration face has been removed
	assert.Len(t, forwarder.GetFaces(), 1)
}

func TestRemoteRegisterPrefixRejected(t *testing.T) {
	forwarder := NewForwarder()
	remoteFace, remoteEndpoint := addInternalFace(forwarder, "internal://remote")

	var succeeded, failed bool
	forwarder.RemoteRegisterPrefix(remoteFace, mustName(t, "/p"), nil, nil,
		func(p *ndn.Name) { failed = true },
		func(p *ndn.Name) { succeeded = true })
	require.NoError(t, forwarder.ProcessEvents())

	commands := drain(remoteEndpoint)
	require.Len(t, commands, 1)
	commandBlock, _, err := tlv.DecodeBlock(commands[0])
	require.NoError(t, err)
	command, err := ndn.DecodeInterest(commandBlock)
	require.NoError(t, err)
	// Unsigned: only the ControlParameters component follows the command prefix
	assert.Equal(t, 5, command.Name().Size())

	response := mgmt.MakeControlResponse(403, "Forbidden", nil)
	responseBlock, err := response.Encode()
	require.NoError(t, err)
	responseWire, err := responseBlock.Wire()
	require.NoError(t, err)
	responseData := ndn.NewData(command.Name(), responseWire)
	dataBlock, err := responseData.Encode()
	require.NoError(t, err)
	dataWire, err := dataBlock.Wire()
	require.NoError(t, err)
	require.NoError(t, remoteEndpoint.Send(dataWire))
	require.NoError(t, forwarder.ProcessEvents())

	assert.True(t, failed)
	assert.False(t, succeeded)
}

func TestRemoteRegisterPrefixUnknownFace(t *testing.T) {
	forwarder := NewForwarder()

	var failed bool
	forwarder.RemoteRegisterPrefix(42, mustName(t, "/p"), nil, nil,
		func(p *ndn.Name) { failed = true }, nil)
	assert.True(t, failed)
}

func TestOnDemandUDPFace(t *testing.T) {
	forwarder := NewForwarder()
	channel, err := forwarder.AddUDPChannel("127.0.0.1", 0)
	require.NoError(t, err)
	defer channel.Close()

	localURI := channel.(*face.UDPChannel).LocalURI()
	port, err := strconv.Atoi(localURI[strings.LastIndex(localURI, ":")+1:])
	require.NoError(t, err)

	conn, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	require.NoError(t, err)
	defer conn.Close()

	interestWire := encodeInterest(t, "/foo", []byte{0x0F, 0x00, 0x00, 0x00})
	_, err = conn.Write(interestWire)
	require.NoError(t, err)

	expectedURI := "udp://" + conn.LocalAddr().String()
	deadline := time.Now().Add(2 * time.Second)
	for len(forwarder.GetFaces()) == 0 && time.Now().Before(deadline) {
		require.NoError(t, forwarder.ProcessEvents())
		time.Sleep(10 * time.Millisecond)
	}

	faces := forwarder.GetFaces()
	require.Len(t, faces, 1)
	for _, uri := range faces {
		assert.Equal(t, expectedURI, uri)
	}
	assert.Equal(t, 1, forwarder.Pit().Size())
}

func TestOnDemandTCPFace(t *testing.T) {
	forwarder := NewForwarder()
	channel, err := forwarder.AddTCPChannel("127.0.0.1", 0)
	require.NoError(t, err)
	defer channel.Close()

	localURI := channel.(*face.TCPChannel).LocalURI()
	addr := localURI[len("tcp://"):]

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	interestWire := encodeInterest(t, "/foo", []byte{0x1F, 0x00, 0x00, 0x00})
	_, err = conn.Write(interestWire)
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for forwarder.Pit().Size() == 0 && time.Now().Before(deadline) {
		require.NoError(t, forwarder.ProcessEvents())
		time.Sleep(10 * time.Millisecond)
	}

	faces := forwarder.GetFaces()
	require.Len(t, faces, 1)
	for _, uri := range faces {
		assert.Equal(t, "tcp://"+conn.LocalAddr().String(), uri)
	}
	assert.Equal(t, 1, forwarder.Pit().Size())
}
