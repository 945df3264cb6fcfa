package message

import (
	"github.com/clasped-home/matter-core/pkg/crypto"
)

// Codec encrypts and decrypts messages for one session direction (spec
// 4.8, 4.9). encryptionKey is reused for both AEAD and, via privacyKey, the
// header-obfuscation cipher.
type Codec struct {
	encryptionKey []byte // 16-byte AES-128 key
	privacyKey    []byte // derived once, cached
	sourceNodeID  uint64 // folded into the AEAD/privacy nonces
}

// NewCodec builds a Codec. encryptionKey must be exactly
// crypto.SymmetricKeySize bytes. sourceNodeID is UnspecifiedNodeID for PASE
// sessions and the operational node ID for CASE sessions.
func NewCodec(encryptionKey []byte, sourceNodeID uint64) (*Codec, error) {
	if len(encryptionKey) != crypto.SymmetricKeySize {
		return nil, ErrInvalidKey
	}

	privacyKey, err := crypto.DerivePrivacyKey(encryptionKey)
	if err != nil {
		return nil, err
	}

	return &Codec{
		encryptionKey: encryptionKey,
		privacyKey:    privacyKey,
		sourceNodeID:  sourceNodeID,
	}, nil
}

// Encode encrypts header/protocol/payload into a complete wire message,
// applying privacy obfuscation to the header when requested (spec 4.8.2,
// 4.9.3). header.Privacy is set to match privacy as a side effect.
func (c *Codec) Encode(header *MessageHeader, protocol *ProtocolHeader, payload []byte, privacy bool) ([]byte, error) {
	header.Privacy = privacy

	aad := header.Encode()
	nonce := crypto.BuildAEADNonce(header.securityFlags(), header.MessageCounter, c.sourceNodeID)

	ciphertext, err := crypto.AESCCM128Encrypt(c.encryptionKey, nonce, c.plaintextFor(protocol, payload), aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	encryptedPayload, mic := splitMIC(ciphertext)

	headerBytes := aad
	if privacy {
		if headerBytes, err = c.obfuscateHeader(header, mic); err != nil {
			return nil, err
		}
	}

	return joinSections(headerBytes, encryptedPayload, mic), nil
}

// plaintextFor concatenates the protocol header and application payload
// into the buffer Encode hands the AEAD cipher.
func (c *Codec) plaintextFor(protocol *ProtocolHeader, payload []byte) []byte {
	protocolBytes := protocol.Encode()
	plaintext := make([]byte, len(protocolBytes)+len(payload))
	copy(plaintext, protocolBytes)
	copy(plaintext[len(protocolBytes):], payload)
	return plaintext
}

// splitMIC separates an AEAD ciphertext into its payload and trailing MIC.
func splitMIC(ciphertext []byte) (payload, mic []byte) {
	split := len(ciphertext) - MICSize
	return ciphertext[:split], ciphertext[split:]
}

// joinSections concatenates header, payload, and MIC into one wire message.
func joinSections(header, payload, mic []byte) []byte {
	out := make([]byte, len(header)+len(payload)+len(mic))
	n := copy(out, header)
	n += copy(out[n:], payload)
	copy(out[n:], mic)
	return out
}

// obfuscateHeader applies spec 4.9.3 privacy obfuscation to a freshly
// encoded header, returning the obfuscated bytes.
func (c *Codec) obfuscateHeader(header *MessageHeader, mic []byte) ([]byte, error) {
	headerBytes := header.Encode()

	privacyNonce, err := crypto.BuildPrivacyNonce(header.SessionID, mic)
	if err != nil {
		return nil, err
	}

	offset, length := header.PrivacyHeaderOffset(), header.PrivacyObfuscatedSize()
	if length == 0 {
		return headerBytes, nil
	}

	obfuscated, err := crypto.AESCTREncrypt(c.privacyKey, privacyNonce, headerBytes[offset:offset+length])
	if err != nil {
		return nil, err
	}
	copy(headerBytes[offset:], obfuscated)
	return headerBytes, nil
}

// Decode decrypts a received secure message, reversing privacy obfuscation
// first if the P flag is set (spec 4.8.3, 4.9.4). sourceNodeID feeds the
// AEAD nonce and should come from the owning session context, not the
// header (which the sender may have left blank).
func (c *Codec) Decode(data []byte, sourceNodeID uint64) (*Frame, error) {
	raw, err := DecodeRaw(data)
	if err != nil {
		return nil, err
	}
	if !raw.Header.IsSecure() {
		return nil, ErrDecryptionFailed
	}

	headerBytes := make([]byte, raw.Header.Size())
	if raw.Header.Privacy {
		copy(headerBytes, data[:raw.Header.Size()])
		if err := c.deobfuscateHeader(headerBytes, &raw.Header, raw.MIC); err != nil {
			return nil, err
		}
		if _, err := raw.Header.Decode(headerBytes); err != nil {
			return nil, err
		}
	} else {
		raw.Header.EncodeTo(headerBytes)
	}

	nonce := crypto.BuildAEADNonce(raw.Header.securityFlags(), raw.Header.MessageCounter, sourceNodeID)
	ciphertext := joinSections(nil, raw.EncryptedPayload, raw.MIC)

	plaintext, err := crypto.AESCCM128Decrypt(c.encryptionKey, nonce, ciphertext, headerBytes)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	frame := &Frame{Header: raw.Header}
	protocolLen, err := frame.Protocol.Decode(plaintext)
	if err != nil {
		return nil, err
	}
	if len(plaintext) > protocolLen {
		frame.Payload = make([]byte, len(plaintext)-protocolLen)
		copy(frame.Payload, plaintext[protocolLen:])
	}

	return frame, nil
}

// deobfuscateHeader reverses obfuscateHeader in place on headerBytes.
func (c *Codec) deobfuscateHeader(headerBytes []byte, header *MessageHeader, mic []byte) error {
	privacyNonce, err := crypto.BuildPrivacyNonce(header.SessionID, mic)
	if err != nil {
		return err
	}

	offset, length := header.PrivacyHeaderOffset(), header.PrivacyObfuscatedSize()
	if length == 0 {
		return nil
	}

	deobfuscated, err := crypto.AESCTRDecrypt(c.privacyKey, privacyNonce, headerBytes[offset:offset+length])
	if err != nil {
		return err
	}
	copy(headerBytes[offset:], deobfuscated)
	return nil
}

// DecodeWithKey decodes a message using a one-shot codec built from
// encryptionKey, for callers that don't keep a Codec around.
func DecodeWithKey(data []byte, encryptionKey []byte, sourceNodeID uint64) (*Frame, error) {
	codec, err := NewCodec(encryptionKey, sourceNodeID)
	if err != nil {
		return nil, err
	}
	return codec.Decode(data, sourceNodeID)
}

// UnsecuredCodec encodes/decodes the unencrypted messages used during
// session establishment.
type UnsecuredCodec struct{}

// NewUnsecuredCodec builds an UnsecuredCodec.
func NewUnsecuredCodec() *UnsecuredCodec {
	return &UnsecuredCodec{}
}

// Encode serializes header/protocol/payload without encryption.
func (u *UnsecuredCodec) Encode(header *MessageHeader, protocol *ProtocolHeader, payload []byte) []byte {
	frame := &Frame{
		Header:   *header,
		Protocol: *protocol,
		Payload:  payload,
	}
	return frame.EncodeUnsecured()
}

// Decode parses an unsecured message frame.
func (u *UnsecuredCodec) Decode(data []byte) (*Frame, error) {
	return DecodeUnsecured(data)
}
