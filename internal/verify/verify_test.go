package verify

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// armoredTestKey generates a fresh public key block for import tests.
func armoredTestKey(t *testing.T) string {
	t.Helper()
	entity, err := openpgp.NewEntity("ci", "", "ci@example.com", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(w))
	require.NoError(t, w.Close())
	return buf.String()
}

func TestKeyringEmptyIsNoPolicy(t *testing.T) {
	k := NewKeyring()
	assert.True(t, k.Empty())

	require.NoError(t, k.AddArmored(armoredTestKey(t)))
	assert.False(t, k.Empty())
}

func TestAddArmoredRejectsMalformedKey(t *testing.T) {
	k := NewKeyring()
	err := k.AddArmored("-----BEGIN PGP PUBLIC KEY BLOCK-----\ngarbage\n-----END PGP PUBLIC KEY BLOCK-----")
	require.Error(t, err)
	assert.True(t, errs.IsCategory(err, errs.CategoryKey))
	assert.True(t, k.Empty())
}

func TestFetchKeyID(t *testing.T) {
	key := armoredTestKey(t)
	var gotPath, gotSearch string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSearch = r.URL.Query().Get("search")
		_, _ = w.Write([]byte(key))
	}))
	defer server.Close()

	k := NewKeyring()
	require.NoError(t, k.FetchKeyID(server.URL, "A1B2C3D4"))
	assert.False(t, k.Empty())
	assert.Equal(t, "/pks/lookup", gotPath)
	assert.Equal(t, "0xA1B2C3D4", gotSearch)
}

func TestFetchKeyIDFailures(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		err := NewKeyring().FetchKeyID(server.URL, "A1B2C3D4")
		require.Error(t, err)
		assert.True(t, errs.IsCategory(err, errs.CategoryKey))
	})

	t.Run("malformed response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not a key"))
		}))
		defer server.Close()

		err := NewKeyring().FetchKeyID(server.URL, "A1B2C3D4")
		require.Error(t, err)
		assert.True(t, errs.IsCategory(err, errs.CategoryKey))
	})

	t.Run("unreachable", func(t *testing.T) {
		err := NewKeyring().FetchKeyID("http://127.0.0.1:1", "A1B2C3D4")
		require.Error(t, err)
		assert.True(t, errs.IsCategory(err, errs.CategoryKey))
	})
}

func TestLookupURL(t *testing.T) {
	cases := []struct {
		name      string
		keyserver string
		id        string
		want      string
	}{
		{
			name:      "https keyserver",
			keyserver: "https://keyserver.ubuntu.com",
			id:        "A1B2",
			want:      "https://keyserver.ubuntu.com/pks/lookup?op=get&options=mr&search=0xA1B2",
		},
		{
			name:      "hkp scheme gets port",
			keyserver: "hkp://keys.example.com",
			id:        "A1B2",
			want:      "http://keys.example.com:11371/pks/lookup?op=get&options=mr&search=0xA1B2",
		},
		{
			name:      "hkps scheme",
			keyserver: "hkps://keys.example.com",
			id:        "A1B2",
			want:      "https://keys.example.com/pks/lookup?op=get&options=mr&search=0xA1B2",
		},
		{
			name:      "id already prefixed",
			keyserver: "https://keys.example.com",
			id:        "0xA1B2",
			want:      "https://keys.example.com/pks/lookup?op=get&options=mr&search=0xA1B2",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := lookupURL(tc.keyserver, tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
