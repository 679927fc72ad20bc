/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/named-data/mnfd/core"
	"github.com/named-data/mnfd/face"
	"github.com/named-data/mnfd/ndn"
	"github.com/named-data/mnfd/ndn/mgmt"
	"github.com/named-data/mnfd/ndn/tlv"
)

// registerParametersComponent is the name component of a registration command carrying
// the encoded ControlParameters.
const registerParametersComponent = 4

// onLocalhostInterest handles an Interest under the localhost control prefix. The only
// recognized command is /localhost/nfd/rib/register; all other localhost names are
// logged and ignored.
func (f *Forwarder) onLocalhostInterest(inFace *face.Face, interest *ndn.Interest) {
	name := interest.Name()
	if !registerPrefix.PrefixOf(name) {
		core.LogInfo(f, "Unrecognized localhost prefix ", name)
		return
	}

	component, ok := name.At(registerParametersComponent)
	if !ok {
		core.LogError(f, "Registration Interest missing ControlParameters: ", name)
		return
	}

	paramsBlock, _, err := tlv.DecodeBlock(component.Value())
	if err != nil {
		core.LogError(f, "Error decoding registration Interest ControlParameters: ", err)
		return
	}
	params, err := mgmt.DecodeControlParameters(paramsBlock)
	if err != nil {
		core.LogError(f, "Error decoding registration Interest ControlParameters: ", err)
		return
	}
	if params.Name == nil {
		core.LogError(f, "Registration Interest ControlParameters missing Name: ", name)
		return
	}

	core.LogInfo(f, "Received register prefix request for ", params.Name)

	if !f.AddRoute(params.Name, inFace.ID(), 0) {
		return
	}

	// Send the ControlResponse with the decoded parameters as its body
	body, err := params.Encode()
	if err != nil {
		core.LogError(f, "Unable to encode registration response body: ", err)
		return
	}
	response := mgmt.MakeControlResponse(200, "Success", body)
	responseBlock, err := response.Encode()
	if err != nil {
		core.LogError(f, "Unable to encode registration response: ", err)
		return
	}
	responseWire, err := responseBlock.Wire()
	if err != nil {
		core.LogError(f, "Unable to encode registration response: ", err)
		return
	}

	// The response Data carries only a digest, not a key-based signature
	responseData := ndn.NewData(name, responseWire)
	dataBlock, err := responseData.Encode()
	if err != nil {
		core.LogError(f, "Unable to encode registration response Data: ", err)
		return
	}
	wire, err := dataBlock.Wire()
	if err != nil {
		core.LogError(f, "Unable to encode registration response Data: ", err)
		return
	}
	inFace.Send(wire)
}
