package encryption

import (
	"bytes"
	"fmt"

	"github.com/tink-crypto/tink-go/v2/daead"
	"github.com/tink-crypto/tink-go/v2/insecurecleartextkeyset"
	"github.com/tink-crypto/tink-go/v2/keyset"
	aes_sivpb "github.com/tink-crypto/tink-go/v2/proto/aes_siv_go_proto"
	tinkpb "github.com/tink-crypto/tink-go/v2/proto/tink_go_proto"
	"github.com/tink-crypto/tink-go/v2/tink"

	"google.golang.org/protobuf/proto"
)

const (
	sivInfo    = "fernetcrypt/aes-siv"
	sivKeySize = 64
	// sivOverhead is the synthetic IV that prefixes every AES-SIV ciphertext.
	sivOverhead = 16
)

// sivCodec seals chunks with AES-SIV. The synthetic IV doubles as the
// authentication tag, so frames carry no separate nonce.
type sivCodec struct {
	daead   tink.DeterministicAEAD
	context []byte
}

func newSIVCodec(key, header []byte) (*sivCodec, error) {
	derived, err := deriveSubKeys(key, sivInfo, sivKeySize)
	if err != nil {
		return nil, err
	}
	defer clearBytes(derived)

	handle, err := newDeterministicAEADKeyHandle(derived)
	if err != nil {
		return nil, fmt.Errorf("creating keyset handle: %w", err)
	}

	primitive, err := daead.New(handle)
	if err != nil {
		return nil, fmt.Errorf("creating DeterministicAEAD: %w", err)
	}

	return &sivCodec{
		daead:   primitive,
		context: append([]byte(nil), header...),
	}, nil
}

func (c *sivCodec) Overhead() int {
	return sivOverhead
}

func (c *sivCodec) EncryptChunk(dst []byte, index uint64, final bool, plaintext []byte) ([]byte, error) {
	sealed, err := c.daead.EncryptDeterministically(plaintext, chunkAssociatedData(c.context, index, final))
	if err != nil {
		return dst, fmt.Errorf("encrypting chunk: %w", err)
	}

	return append(dst, sealed...), nil
}

func (c *sivCodec) DecryptChunk(dst []byte, index uint64, final bool, frame []byte) ([]byte, error) {
	if len(frame) < sivOverhead {
		return dst, fmt.Errorf("%w: frame of %d bytes is shorter than its overhead", ErrTruncatedInput, len(frame))
	}

	opened, err := c.daead.DecryptDeterministically(frame, chunkAssociatedData(c.context, index, final))
	if err != nil {
		return dst, ErrAuthentication
	}

	return append(dst, opened...), nil
}

// newDeterministicAEADKeyHandle wraps raw AES-SIV key bytes in a single-key tink keyset.
func newDeterministicAEADKeyHandle(key []byte) (*keyset.Handle, error) {
	serializedKey, err := proto.Marshal(&aes_sivpb.AesSivKey{
		Version:  0,
		KeyValue: key,
	})
	if err != nil {
		return nil, fmt.Errorf("serializing AesSivKey: %w", err)
	}

	keySet := &tinkpb.Keyset{
		PrimaryKeyId: 1,
		Key: []*tinkpb.Keyset_Key{
			{
				KeyData: &tinkpb.KeyData{
					TypeUrl:         "type.googleapis.com/google.crypto.tink.AesSivKey",
					Value:           serializedKey,
					KeyMaterialType: tinkpb.KeyData_SYMMETRIC,
				},
				Status:           tinkpb.KeyStatusType_ENABLED,
				KeyId:            1,
				OutputPrefixType: tinkpb.OutputPrefixType_RAW,
			},
		},
	}

	serializedKeyset, err := proto.Marshal(keySet)
	if err != nil {
		return nil, fmt.Errorf("serializing keyset: %w", err)
	}

	handle, err := insecurecleartextkeyset.Read(keyset.NewBinaryReader(bytes.NewReader(serializedKeyset)))
	if err != nil {
		return nil, fmt.Errorf("reading keyset: %w", err)
	}

	return handle, nil
}
