/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/named-data/mnfd/core"
	"github.com/named-data/mnfd/face"
	"github.com/named-data/mnfd/ndn"
	"github.com/named-data/mnfd/ndn/mgmt"
	"github.com/named-data/mnfd/ndn/security"
	"github.com/named-data/mnfd/ndn/tlv"
)

type pendingRegistration struct {
	prefix    *ndn.Name
	endpoint  *face.InternalEndpoint
	faceID    uint64
	deadline  time.Time
	onFail    func(prefix *ndn.Name)
	onSuccess func(prefix *ndn.Name)
}

// RemoteRegisterPrefix sends a /localhop/nfd/rib/register Interest for the prefix only
// out the specified face, using an in-process transport. The registration face is
// marked non-local so the localhop command is honored on the way out, and carries an
// out-face restriction so the command reaches only the target. If keyChain is nil the
// command Interest is unsigned.
//
// The callbacks fire from a later ProcessEvents call: onSuccess when a ControlResponse
// with status 200 arrives, onFail on any other response or when the command times out.
// If the face is unknown or the command cannot be encoded or signed, onFail is called
// before RemoteRegisterPrefix returns.
func (f *Forwarder) RemoteRegisterPrefix(faceID uint64, prefix *ndn.Name, keyChain *security.KeyChain,
	certName *ndn.Name, onFail func(prefix *ndn.Name), onSuccess func(prefix *ndn.Name)) {
	if _, ok := f.facesByID[faceID]; !ok {
		core.LogInfo(f, "RemoteRegisterPrefix: Unrecognized face id ", faceID)
		if onFail != nil {
			onFail(prefix)
		}
		return
	}

	transport, endpoint := face.MakeInternalPair()
	regFaceID := f.AddFace("internal://register/"+strconv.FormatUint(faceID, 10), transport)
	regFace := f.facesByID[regFaceID]
	regFace.MarkNonLocal()
	regFace.SetOutFaceID(faceID)

	params := mgmt.MakeControlParameters()
	params.Name = prefix
	paramsBlock, err := params.Encode()
	if err == nil {
		_, err = paramsBlock.Wire()
	}
	if err != nil {
		core.LogError(f, "RemoteRegisterPrefix: Unable to encode ControlParameters: ", err)
		f.RemoveFace(regFaceID)
		if onFail != nil {
			onFail(prefix)
		}
		return
	}
	paramsWire, _ := paramsBlock.Wire()

	name := localhopRegisterPrefix.DeepCopy()
	name.Append(ndn.NewGenericNameComponent(paramsWire))
	if keyChain != nil {
		if err := appendCommandSignature(name, keyChain, certName); err != nil {
			core.LogError(f, "RemoteRegisterPrefix: Unable to sign command: ", err)
			f.RemoveFace(regFaceID)
			if onFail != nil {
				onFail(prefix)
			}
			return
		}
	}

	interest := ndn.NewInterest(name)
	interestBlock, err := interest.Encode()
	if err == nil {
		_, err = interestBlock.Wire()
	}
	if err != nil {
		core.LogError(f, "RemoteRegisterPrefix: Unable to encode command Interest: ", err)
		f.RemoveFace(regFaceID)
		if onFail != nil {
			onFail(prefix)
		}
		return
	}
	wire, _ := interestBlock.Wire()
	endpoint.Send(wire)

	f.pendingRegistrations = append(f.pendingRegistrations, &pendingRegistration{
		prefix:    prefix,
		endpoint:  endpoint,
		faceID:    regFaceID,
		deadline:  time.Now().Add(interest.Lifetime()),
		onFail:    onFail,
		onSuccess: onSuccess,
	})
}

// appendCommandSignature appends the signed-command components to the name: timestamp,
// random value, SignatureInfo, and SignatureValue over the preceding components.
func appendCommandSignature(name *ndn.Name, keyChain *security.KeyChain, certName *ndn.Name) error {
	timestamp := tlv.EncodeNNIBlock(tlv.GenericNameComponent, uint64(time.Now().UnixMilli()))
	name.Append(ndn.NewGenericNameComponent(timestamp.Value()))
	random := tlv.EncodeNNIBlock(tlv.GenericNameComponent, rand.Uint64())
	name.Append(ndn.NewGenericNameComponent(random.Value()))

	sigInfo := ndn.NewSignatureInfo(keyChain.SignatureType())
	if certName != nil {
		keyLocator := tlv.NewEmptyBlock(tlv.KeyLocator)
		keyLocator.Append(certName.Encode())
		sigInfo.SetKeyLocator(keyLocator)
	}
	sigInfoBlock, err := sigInfo.Encode()
	if err != nil {
		return err
	}
	sigInfoWire, err := sigInfoBlock.Wire()
	if err != nil {
		return err
	}
	name.Append(ndn.NewGenericNameComponent(sigInfoWire))

	signedPortion := make([]byte, 0)
	for i := 0; i < name.Size(); i++ {
		component, _ := name.At(i)
		componentWire, err := component.Encode().Wire()
		if err != nil {
			return err
		}
		signedPortion = append(signedPortion, componentWire...)
	}
	signature, err := keyChain.Sign(signedPortion)
	if err != nil {
		return err
	}
	sigValueBlock := tlv.NewBlock(tlv.SignatureValue, signature)
	sigValueWire, err := sigValueBlock.Wire()
	if err != nil {
		return err
	}
	name.Append(ndn.NewGenericNameComponent(sigValueWire))
	return nil
}

// checkPendingRegistrations delivers registration responses and expires commands whose
// deadline has passed.
func (f *Forwarder) checkPendingRegistrations(now time.Time) {
	if len(f.pendingRegistrations) == 0 {
		return
	}

	remaining := f.pendingRegistrations[:0]
	for _, reg := range f.pendingRegistrations {
		done := false
		for wire := reg.endpoint.Receive(); wire != nil && !done; wire = reg.endpoint.Receive() {
			response := decodeRegistrationResponse(wire)
			if response == nil {
				continue
			}
			done = true
			if response.StatusCode == 200 {
				core.LogInfo(f, "Remote registration of ", reg.prefix, " succeeded")
				if reg.onSuccess != nil {
					reg.onSuccess(reg.prefix)
				}
			} else {
				core.LogWarn(f, "Remote registration of ", reg.prefix, " failed with status ",
					response.StatusCode, ": ", response.StatusText)
				if reg.onFail != nil {
					reg.onFail(reg.prefix)
				}
			}
		}

		if done {
			f.RemoveFace(reg.faceID)
			continue
		}
		if now.After(reg.deadline) {
			core.LogWarn(f, "Remote registration of ", reg.prefix, " timed out")
			f.RemoveFace(reg.faceID)
			if reg.onFail != nil {
				reg.onFail(reg.prefix)
			}
			continue
		}
		remaining = append(remaining, reg)
	}
	f.pendingRegistrations = remaining
}

func decodeRegistrationResponse(wire []byte) *mgmt.ControlResponse {
	block, _, err := tlv.DecodeBlock(wire)
	if err != nil || block.Type() != tlv.Data {
		return nil
	}
	data, err := ndn.DecodeData(block, false)
	if err != nil {
		return nil
	}
	content := data.Content()
	if len(content) == 0 {
		return nil
	}
	responseBlock, _, err := tlv.DecodeBlock(content)
	if err != nil {
		return nil
	}
	response, err := mgmt.DecodeControlResponse(responseBlock)
	if err != nil {
		return nil
	}
	return response
}
