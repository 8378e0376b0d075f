package pacer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/logging"
)

// pacerFixture stands in for both the PACER login service and a court's ECF
// host on a single test server.
type pacerFixture struct {
	server *httptest.Server
	logins int
	lookup http.HandlerFunc
}

func newPacerFixture(t *testing.T) *pacerFixture {
	t.Helper()
	f := &pacerFixture{}

	mux := http.NewServeMux()
	mux.HandleFunc("/services/cso-auth", func(w http.ResponseWriter, r *http.Request) {
		f.logins++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"nextGenCSO": "session-cookie", "loginResult": "0"}`))
	})
	mux.HandleFunc("/cgi-bin/possible_case_numbers.pl", func(w http.ResponseWriter, r *http.Request) {
		f.lookup(w, r)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *pacerFixture) newClient() *CaseLookupClient {
	sessions := NewSessionManager(Config{
		Username: "lawyer",
		Password: "hunter2",
		AuthURL:  f.server.URL + "/services/cso-auth",
		Timeout:  5 * time.Second,
	}, nil, logging.NewNop())

	client := NewCaseLookupClient(sessions, logging.NewNop())
	client.scheme = "http"
	host := strings.TrimPrefix(f.server.URL, "http://")
	client.host = func(string) string { return host }
	return client
}

func TestSessionManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("caches the session across calls", func(t *testing.T) {
		f := newPacerFixture(t)
		sessions := NewSessionManager(Config{
			Username: "lawyer",
			Password: "hunter2",
			AuthURL:  f.server.URL + "/services/cso-auth",
		}, nil, logging.NewNop())

		first, err := sessions.GetSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, "session-cookie", first.Cookie)

		_, err = sessions.GetSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, f.logins)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"loginResult": "1", "errorDescription": "Invalid username or password"}`))
		}))
		defer server.Close()

		sessions := NewSessionManager(Config{AuthURL: server.URL}, nil, logging.NewNop())
		_, err := sessions.GetSession(ctx)
		assert.ErrorIs(t, err, ErrLoginFailed)
	})
}

func TestCaseLookupClient_LookupCaseID(t *testing.T) {
	ctx := context.Background()

	t.Run("single case resolves directly", func(t *testing.T) {
		f := newPacerFixture(t)
		f.lookup = func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("NextGenCSO")
			require.NoError(t, err)
			assert.Equal(t, "session-cookie", cookie.Value)
			_, _ = w.Write([]byte(`<request number="1:17-cv-101"><case number="1:17-cv-101" id="56789" title="Smith v. Jones" sortable="1:2017-cv-00101"/></request>`))
		}

		caseID, err := f.newClient().LookupCaseID(ctx, "nysd", "1:17-cv-101", "Smith v. Jones")
		require.NoError(t, err)
		assert.Equal(t, "56789", caseID)
	})

	t.Run("no cases is not an error", func(t *testing.T) {
		f := newPacerFixture(t)
		f.lookup = func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<request number="1:17-cv-999"></request>`))
		}

		caseID, err := f.newClient().LookupCaseID(ctx, "nysd", "1:17-cv-999", "Smith v. Jones")
		require.NoError(t, err)
		assert.Empty(t, caseID)
	})

	t.Run("multiple cases pick by caption similarity", func(t *testing.T) {
		f := newPacerFixture(t)
		f.lookup = func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<request number="17-101">` +
				`<case number="1:17-cr-101" id="11111" title="USA v. Nobody" sortable="1:2017-cr-00101"/>` +
				`<case number="1:17-cv-101" id="22222" title="Smith v. Jones et al" sortable="1:2017-cv-00101"/>` +
				`</request>`))
		}

		caseID, err := f.newClient().LookupCaseID(ctx, "nysd", "17-101", "Smith v. Jones")
		require.NoError(t, err)
		assert.Equal(t, "22222", caseID)
	})

	t.Run("multiple cases without a case name is ambiguous", func(t *testing.T) {
		f := newPacerFixture(t)
		f.lookup = func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<request number="17-101">` +
				`<case number="1:17-cr-101" id="11111" title="USA v. Nobody" sortable="1:2017-cr-00101"/>` +
				`<case number="1:17-cv-101" id="22222" title="Smith v. Jones" sortable="1:2017-cv-00101"/>` +
				`</request>`))
		}

		_, err := f.newClient().LookupCaseID(ctx, "nysd", "17-101", "")
		assert.ErrorIs(t, err, ErrAmbiguousCaseNumber)
	})

	t.Run("stale session triggers one re-login", func(t *testing.T) {
		f := newPacerFixture(t)
		attempts := 0
		f.lookup = func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`<request number="1:17-cv-101"><case number="1:17-cv-101" id="56789" title="Smith v. Jones" sortable="1:2017-cv-00101"/></request>`))
		}

		caseID, err := f.newClient().LookupCaseID(ctx, "nysd", "1:17-cv-101", "Smith v. Jones")
		require.NoError(t, err)
		assert.Equal(t, "56789", caseID)
		assert.Equal(t, 2, attempts)
		// Initial login plus the forced refresh.
		assert.Equal(t, 2, f.logins)
	})

	t.Run("persistent rejection gives up", func(t *testing.T) {
		f := newPacerFixture(t)
		f.lookup = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}

		_, err := f.newClient().LookupCaseID(ctx, "nysd", "1:17-cv-101", "Smith v. Jones")
		assert.ErrorContains(t, err, "rejected session")
	})

	t.Run("upstream error surfaces", func(t *testing.T) {
		f := newPacerFixture(t)
		f.lookup = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}

		_, err := f.newClient().LookupCaseID(ctx, "nysd", "1:17-cv-101", "Smith v. Jones")
		assert.ErrorContains(t, err, "status 502")
	})
}

func TestCourtHost(t *testing.T) {
	assert.Equal(t, "ecf.nysd.uscourts.gov", CourtHost("nysd"))
}
