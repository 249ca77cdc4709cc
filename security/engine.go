package security

import (
	"fmt"

	"zigbeecore/addr"
	"zigbeecore/aib"
	"zigbeecore/aps"
	"zigbeecore/nib"
	"zigbeecore/nwk"
	"zigbeecore/wire"
)

// maxCounter is the terminal frame-counter value (the invariant and
// 4.4 decrypt step 3): 2^32-1.
const maxCounter = 0xFFFFFFFF

// EncryptNWK assembles and encrypts a secured NWK frame in place: it
// writes header, builds and writes the auxiliary header under the
// NIB's active network key, seals payload into ciphertext+MIC, and
// advances/persists the outgoing counter.
// header.FrameControl.Security() must already be set; its security_level
// on the wire is always zeroed (encrypt step 6).
func EncryptNWK(n *nib.NIB, header nwk.Header, payload []byte) ([]byte, error) {
	material, ok, err := n.ActiveSecurityMaterial()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidKey
	}
	if material.Poisoned || material.OutgoingCounter == maxCounter {
		return nil, ErrCounterExhausted
	}
	level, err := n.SecurityLevel()
	if err != nil {
		return nil, err
	}
	sourceIeee, err := n.IeeeAddress()
	if err != nil {
		return nil, err
	}

	seq := material.SeqNo
	aux := AuxHeader{
		Control:       NewSecurityControl(Level(level), KeyIdentifierNetwork, true),
		FrameCounter:  material.OutgoingCounter,
		SourceAddress: &sourceIeee,
		KeySeqNumber:  &seq,
	}

	w := wire.NewWriter(len(payload) + 64)
	header.Write(w)
	auxOff := w.Len()
	aux.Write(w)
	aad := append([]byte{}, w.Bytes()...)

	nonce := BuildNonce(sourceIeee, material.OutgoingCounter, aux.Control, Level(level))
	ciphertext, mic := Seal(material.Key, nonce, aad, payload, Level(level))
	w.PutBytes(ciphertext)
	w.PutBytes(mic)
	w.Bytes()[auxOff] = byte(aux.Control.WithLevel(LevelNone))

	material.OutgoingCounter++
	if material.OutgoingCounter == maxCounter {
		material.Poisoned = true
	}
	if err := n.UpdateSecurityMaterial(material); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecryptNWK parses and decrypts a secured NWK frame in place (
// decrypt steps 1-9). If the header's security bit is clear, it returns
// the header and the remaining bytes unchanged with ErrUnsecuredFrame so
// the caller can distinguish "already plaintext" from a real failure.
func DecryptNWK(n *nib.NIB, buf []byte) (nwk.Header, []byte, error) {
	r := wire.NewReader(buf)
	header, err := nwk.ReadHeader(r)
	if err != nil {
		return header, nil, err
	}
	headerLen := r.Offset()
	if !header.FrameControl.Security() {
		return header, buf[headerLen:], ErrUnsecuredFrame
	}

	aux, err := ReadAuxHeader(r)
	if err != nil {
		return header, nil, err
	}
	if aux.FrameCounter == maxCounter {
		return header, nil, ErrInvalidData
	}

	var material nib.SecurityMaterialEntry
	var ok bool
	if aux.KeySeqNumber != nil {
		material, ok, err = n.SecurityMaterialBySeq(*aux.KeySeqNumber)
	} else {
		material, ok, err = n.ActiveSecurityMaterial()
	}
	if err != nil {
		return header, nil, err
	}
	if !ok || material.Poisoned {
		return header, nil, ErrInvalidKey
	}

	var source addr.IeeeAddress
	if aux.SourceAddress != nil {
		source = *aux.SourceAddress
	} else if header.SourceIeee != nil {
		source = *header.SourceIeee
	}

	if last, seen := material.IncomingCounterFor(source); seen && aux.FrameCounter < last {
		return header, nil, ErrInvalidData
	}

	level, err := n.SecurityLevel()
	if err != nil {
		return header, nil, err
	}
	effectiveLevel := Level(level)
	aux.Control = aux.Control.WithLevel(effectiveLevel)

	aad := append([]byte{}, buf[:headerLen+aux.Len()]...)
	aad[headerLen] = byte(aux.Control)
	nonce := BuildNonce(source, aux.FrameCounter, aux.Control, effectiveLevel)

	body := buf[headerLen+aux.Len():]
	micLen := effectiveLevel.MICLen()
	if len(body) < micLen {
		return header, nil, ErrInvalidData
	}
	ciphertext := body[:len(body)-micLen]
	mic := body[len(body)-micLen:]

	plaintext, ok := Open(material.Key, nonce, aad, ciphertext, mic, effectiveLevel)
	if !ok {
		return header, nil, ErrSecurityFailure
	}

	material = material.WithIncomingCounter(source, aux.FrameCounter)
	if err := n.UpdateSecurityMaterial(material); err != nil {
		return header, nil, err
	}
	return header, plaintext, nil
}

// EncryptAPSData encrypts an APSDE-DATA payload in place under the
// peer's device link key (key selection table, "APS Data").
func EncryptAPSData(a *aib.AIB, header aps.Header, peer addr.IeeeAddress, payload []byte) ([]byte, error) {
	dk, ok, err := a.DeviceKeyPair(peer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidKey
	}
	return encryptAPS(header, dk.LinkKey, peer, dk.OutgoingCounter, KeyIdentifierData, LevelEncMIC32, payload, func(counter uint32) error {
		dk.OutgoingCounter = counter
		return a.UpsertDeviceKeyPair(dk)
	})
}

// DecryptAPSData decrypts an APSDE-DATA frame in place under peer's
// device link key.
func DecryptAPSData(a *aib.AIB, peer addr.IeeeAddress, buf []byte) (aps.Header, []byte, error) {
	dk, ok, err := a.DeviceKeyPair(peer)
	if !ok || err != nil {
		if err == nil {
			err = ErrInvalidKey
		}
		return aps.Header{}, nil, err
	}
	return decryptAPS(buf, dk.LinkKey, peer, dk.IncomingCounter, func(counter uint32) error {
		dk.IncomingCounter = counter
		return a.UpsertDeviceKeyPair(dk)
	})
}

// EncryptAPSTransportKey encrypts a key-transport/key-load command under
// the key derived from peer's current link key (key selection
// table): KeyTransport for StandardNetworkKey, KeyLoad otherwise.
func EncryptAPSTransportKey(a *aib.AIB, header aps.Header, peer addr.IeeeAddress, keyID KeyIdentifier, payload []byte) ([]byte, error) {
	dk, ok, err := a.DeviceKeyPair(peer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidKey
	}
	key := derivedKey(dk.LinkKey, keyID)
	return encryptAPS(header, key, peer, dk.OutgoingCounter, keyID, LevelEncMIC32, payload, func(counter uint32) error {
		dk.OutgoingCounter = counter
		return a.UpsertDeviceKeyPair(dk)
	})
}

// DecryptAPSTransportKey decrypts a key-transport/key-load command.
func DecryptAPSTransportKey(a *aib.AIB, peer addr.IeeeAddress, keyID KeyIdentifier, buf []byte) (aps.Header, []byte, error) {
	dk, ok, err := a.DeviceKeyPair(peer)
	if !ok || err != nil {
		if err == nil {
			err = ErrInvalidKey
		}
		return aps.Header{}, nil, err
	}
	key := derivedKey(dk.LinkKey, keyID)
	return decryptAPS(buf, key, peer, dk.IncomingCounter, func(counter uint32) error {
		dk.IncomingCounter = counter
		return a.UpsertDeviceKeyPair(dk)
	})
}

func derivedKey(linkKey [16]byte, keyID KeyIdentifier) [16]byte {
	switch keyID {
	case KeyIdentifierKeyTransport:
		return DeriveKeyTransportKey(linkKey)
	case KeyIdentifierKeyLoad:
		return DeriveKeyLoadKey(linkKey)
	default:
		return linkKey
	}
}

func encryptAPS(header aps.Header, key [16]byte, peer addr.IeeeAddress, outgoingCounter uint32, keyID KeyIdentifier, level Level, payload []byte, persist func(uint32) error) ([]byte, error) {
	if outgoingCounter == maxCounter {
		return nil, ErrCounterExhausted
	}
	header.FrameControl = header.FrameControl.WithSecurity(true)
	aux := AuxHeader{
		Control:       NewSecurityControl(level, keyID, true),
		FrameCounter:  outgoingCounter,
		SourceAddress: &peer,
	}
	w := wire.NewWriter(len(payload) + 64)
	header.Write(w)
	auxOff := w.Len()
	aux.Write(w)
	aad := append([]byte{}, w.Bytes()...)

	nonce := BuildNonce(peer, outgoingCounter, aux.Control, level)
	ciphertext, mic := Seal(key, nonce, aad, payload, level)
	w.PutBytes(ciphertext)
	w.PutBytes(mic)
	w.Bytes()[auxOff] = byte(aux.Control.WithLevel(LevelNone))

	if err := persist(outgoingCounter + 1); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func decryptAPS(buf []byte, key [16]byte, peer addr.IeeeAddress, lastSeen uint32, persist func(uint32) error) (aps.Header, []byte, error) {
	r := wire.NewReader(buf)
	header, err := aps.ReadHeader(r)
	if err != nil {
		return header, nil, err
	}
	headerLen := r.Offset()
	if !header.FrameControl.Security() {
		return header, buf[headerLen:], ErrUnsecuredFrame
	}

	aux, err := ReadAuxHeader(r)
	if err != nil {
		return header, nil, err
	}
	if aux.FrameCounter == maxCounter {
		return header, nil, ErrInvalidData
	}
	if aux.FrameCounter < lastSeen {
		return header, nil, ErrInvalidData
	}

	const level = LevelEncMIC32
	aux.Control = aux.Control.WithLevel(level)
	aad := append([]byte{}, buf[:headerLen+aux.Len()]...)
	aad[headerLen] = byte(aux.Control)
	nonce := BuildNonce(peer, aux.FrameCounter, aux.Control, level)

	body := buf[headerLen+aux.Len():]
	micLen := level.MICLen()
	if len(body) < micLen {
		return header, nil, ErrInvalidData
	}
	ciphertext := body[:len(body)-micLen]
	mic := body[len(body)-micLen:]

	plaintext, ok := Open(key, nonce, aad, ciphertext, mic, level)
	if !ok {
		return header, nil, ErrSecurityFailure
	}
	if err := persist(aux.FrameCounter + 1); err != nil {
		return header, nil, fmt.Errorf("security: persist incoming counter: %w", err)
	}
	return header, plaintext, nil
}
