package tokenstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const tokensFormatVersionCurrent = 1

// Access and refresh tokens are length-prefixed with uint16; JWTs routinely
// exceed 255 bytes.
const maxTokenLen = 8192

// Encode serializes a token record into the compact binary format.
func Encode(t Tokens) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.WriteByte(tokensFormatVersionCurrent)

	if err := writeToken(&buf, t.AccessToken); err != nil {
		return nil, err
	}
	if err := writeToken(&buf, t.RefreshToken); err != nil {
		return nil, err
	}

	if len(t.TokenType) > 255 {
		return nil, errors.New("token type too long")
	}
	buf.WriteByte(byte(len(t.TokenType)))
	buf.WriteString(t.TokenType)

	buf.WriteByte(byte(t.Class))

	if err := binary.Write(&buf, binary.BigEndian, int64(t.ExpiresIn/time.Second)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, t.IssuedAt.Unix()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a binary token record produced by [Encode].
func Decode(data []byte) (Tokens, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return Tokens{}, err
	}
	if version != tokensFormatVersionCurrent {
		return Tokens{}, errors.New("invalid token record version")
	}

	var t Tokens

	if t.AccessToken, err = readToken(reader); err != nil {
		return Tokens{}, err
	}
	if t.RefreshToken, err = readToken(reader); err != nil {
		return Tokens{}, err
	}

	typeLen, err := reader.ReadByte()
	if err != nil {
		return Tokens{}, err
	}
	tokenType := make([]byte, typeLen)
	if _, err := io.ReadFull(reader, tokenType); err != nil {
		return Tokens{}, err
	}
	t.TokenType = string(tokenType)

	class, err := reader.ReadByte()
	if err != nil {
		return Tokens{}, err
	}
	t.Class = Class(class)

	var expiresIn int64
	if err := binary.Read(reader, binary.BigEndian, &expiresIn); err != nil {
		return Tokens{}, err
	}
	t.ExpiresIn = time.Duration(expiresIn) * time.Second

	var issuedAt int64
	if err := binary.Read(reader, binary.BigEndian, &issuedAt); err != nil {
		return Tokens{}, err
	}
	t.IssuedAt = time.Unix(issuedAt, 0).UTC()

	if reader.Len() != 0 {
		return Tokens{}, errors.New("trailing bytes in token record")
	}
	if err := t.Validate(); err != nil {
		return Tokens{}, err
	}

	return t, nil
}

func writeToken(buf *bytes.Buffer, token string) error {
	if len(token) > maxTokenLen {
		return errors.New("token too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(token))); err != nil {
		return err
	}
	buf.WriteString(token)
	return nil
}

func readToken(reader *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return "", err
	}
	if int(length) > maxTokenLen {
		return "", errors.New("token too long")
	}
	token := make([]byte, length)
	if _, err := io.ReadFull(reader, token); err != nil {
		return "", err
	}
	return string(token), nil
}
