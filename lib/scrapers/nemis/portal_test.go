package nemis

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nemis-backend/lib/scrapers/nemis/core"

	"github.com/stretchr/testify/require"
)

const (
	testUsername = "inst-10200300"
	testPassword = "hunter2"
)

type testLearner struct {
	Upi, Name, Gender, Dob, BirthCert, Grade, IndexNo string
}

var testRoster = []testLearner{
	{"AAA0000001", "Jane Wanjiku Doe", "F", "14/03/2011", "BC-991001", "Grade 7", "100001"},
	{"AAA0000002", "John Otieno Smith", "M", "02/07/2011", "BC-991002", "Grade 7", "100002"},
	{"AAA0000003", "Amina Hassan Ali", "F", "29/11/2010", "BC-991003", "Grade 7", "100003"},
	{"AAA0000004", "Peter Kamau Njoroge", "M", "05/01/2011", "BC-991004", "Grade 7", "100004"},
	{"AAA0000005", "Grace Achieng Owino", "F", "21/09/2011", "BC-991005", "Grade 7", "100005"},
}

// fakePortal emulates enough of the WebForms portal for the protocol
// layer: hidden token continuity, the learner grid with its page-size
// select, the lookup page and the admission exchange.
type fakePortal struct {
	t   *testing.T
	mux *http.ServeMux

	state        string
	stateCounter int

	pageSize string

	// counters the tests assert on
	logins           int
	listPostbacks    int
	sizePostbacks    int
	searches         int
	admitSaves       int
	placementSaves   int
	biodataSaves     int
	transferReceives int

	// failure injection
	expireRemaining int
	conflictMode    string // "", "once", "always"
}

func (p *fakePortal) nextState() string {
	p.stateCounter++
	p.state = fmt.Sprintf("vs-%03d", p.stateCounter)
	return p.state
}

func (p *fakePortal) renderPage(body string) string {
	state := p.nextState()
	return fmt.Sprintf(`<!DOCTYPE html><html><body>
<form method="post" id="aspnetForm">
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="%s" />
<input type="hidden" name="__VIEWSTATEGENERATOR" id="__VIEWSTATEGENERATOR" value="GEN01" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="ev-%s" />
%s
</form></body></html>`, state, state, body)
}

func (p *fakePortal) loginBody() string {
	return `<input name="ctl00$ContentPlaceHolder1$Login1$UserName" type="text" />`
}

func (p *fakePortal) requireTokens(r *http.Request) {
	require.NoError(p.t, r.ParseForm())
	require.Equal(p.t, p.state, r.PostForm.Get("__VIEWSTATE"),
		"postback must carry the most recently issued token set")
}

// expired sessions answer every learner page with a login redirect
func (p *fakePortal) expire(w http.ResponseWriter, r *http.Request) bool {
	if p.expireRemaining == 0 {
		return false
	}
	p.expireRemaining--
	http.Redirect(w, r, "/Login.aspx?ReturnUrl="+r.URL.Path, http.StatusFound)
	return true
}

func (p *fakePortal) gridBody(truncated bool) string {
	var sb strings.Builder
	sb.WriteString(`<select name="ctl00$ContentPlaceHolder1$SelectRecs">`)
	for _, opt := range []string{"10", "25", "50", "100", "all"} {
		if opt == p.pageSize {
			fmt.Fprintf(&sb, `<option value="%s" selected="selected">%s</option>`, opt, opt)
		} else {
			fmt.Fprintf(&sb, `<option value="%s">%s</option>`, opt, opt)
		}
	}
	sb.WriteString(`</select>`)

	rows := testRoster
	if truncated {
		rows = testRoster[:2]
	}
	sb.WriteString(`<table id="ctl00_ContentPlaceHolder1_grdLearners">`)
	sb.WriteString(`<tr><th>UPI</th><th>Name</th><th>Gender</th><th>Date of Birth</th><th>Birth Cert No</th><th>Grade</th><th>Index No</th><th>Action</th></tr>`)
	for i, l := range rows {
		action := `<a href="#">View</a>`
		if i == 0 {
			action = `<a id="ctl00_ContentPlaceHolder1_grdLearners_ctl03_BtnView" href="#">View</a>`
		}
		fmt.Fprintf(&sb,
			`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			l.Upi, l.Name, l.Gender, l.Dob, l.BirthCert, l.Grade, l.IndexNo, action)
	}
	sb.WriteString(`</table>`)
	return sb.String()
}

func newFakePortal(t *testing.T) (*fakePortal, *httptest.Server) {
	p := &fakePortal{t: t, mux: http.NewServeMux(), pageSize: "50"}

	p.mux.HandleFunc("GET /Login.aspx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, p.renderPage(p.loginBody()))
	})
	p.mux.HandleFunc("POST /Login.aspx", func(w http.ResponseWriter, r *http.Request) {
		p.requireTokens(r)
		username := r.PostForm.Get("ctl00$ContentPlaceHolder1$Login1$UserName")
		password := r.PostForm.Get("ctl00$ContentPlaceHolder1$Login1$Password")
		if username != testUsername || password != testPassword {
			fmt.Fprint(w, p.renderPage(p.loginBody()))
			return
		}
		p.logins++
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "fake-cookie", Path: "/"})
		http.Redirect(w, r, "/Default.aspx", http.StatusFound)
	})
	p.mux.HandleFunc("GET /Default.aspx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, p.renderPage("<h1>Welcome</h1>"))
	})

	p.mux.HandleFunc("GET /Learner/Listlearners.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		fmt.Fprint(w, p.renderPage(p.gridBody(p.pageSize != "all")))
	})
	p.mux.HandleFunc("POST /Learner/Listlearners.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		p.requireTokens(r)
		switch r.PostForm.Get("__EVENTTARGET") {
		case "ctl00$ContentPlaceHolder1$SelectRecs":
			p.sizePostbacks++
			p.pageSize = r.PostForm.Get("ctl00$ContentPlaceHolder1$SelectRecs")
		case "ctl00$ContentPlaceHolder1$SelectCat":
			p.listPostbacks++
		}
		fmt.Fprint(w, p.renderPage(p.gridBody(p.pageSize != "all")))
	})

	p.mux.HandleFunc("GET /Learner/Searchui.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		fmt.Fprint(w, p.renderPage("<h2>Learner search</h2>"))
	})
	p.mux.HandleFunc("POST /Learner/Searchui.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		p.requireTokens(r)
		p.searches++
		query := r.PostForm.Get("ctl00$ContentPlaceHolder1$txtSearch")
		for _, l := range testRoster {
			if l.Upi == query || l.BirthCert == query {
				fmt.Fprint(w, p.renderPage(fmt.Sprintf(`
<table id="ctl00_ContentPlaceHolder1_dtlLearner">
<tr><td>UPI:</td><td>%s</td></tr>
<tr><td>Name:</td><td>%s</td></tr>
<tr><td>Gender:</td><td>%s</td></tr>
<tr><td>Date of Birth:</td><td>%s</td></tr>
<tr><td>Birth Cert No:</td><td>%s</td></tr>
<tr><td>Grade:</td><td>%s</td></tr>
<tr><td>Institution:</td><td>Fake Primary School</td></tr>
</table>`, l.Upi, l.Name, l.Gender, l.Dob, l.BirthCert, l.Grade)))
				return
			}
		}
		fmt.Fprint(w, p.renderPage("<span>No learner found matching your search.</span>"))
	})

	p.mux.HandleFunc("GET /Learner/Studindex.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		fmt.Fprint(w, p.renderPage("<h2>Admit joining learner</h2>"))
	})
	p.mux.HandleFunc("POST /Learner/Studindex.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		p.requireTokens(r)

		if r.PostForm.Get("ctl00$ContentPlaceHolder1$BtnIndex") != "" {
			index := r.PostForm.Get("ctl00$ContentPlaceHolder1$txtIndexNo")
			if index == "999999" {
				fmt.Fprint(w, p.renderPage("<span>Learner is already admitted at another institution.</span>"))
				return
			}
			fmt.Fprint(w, p.renderPage("<span>Candidate loaded.</span>"))
			return
		}

		p.admitSaves++
		ignored := r.PostForm.Get("ctl00$ContentPlaceHolder1$chkIgnore") == "on"
		conflicted := p.conflictMode == "always" ||
			(p.conflictMode == "once" && !ignored)
		if conflicted {
			fmt.Fprint(w, p.renderPage("<span>Duplicate birth certificate found. Do you want to ignore and proceed?</span>"))
			return
		}
		fmt.Fprint(w, p.renderPage(`<span>Learner admitted successfully.</span>
<span id="ctl00_ContentPlaceHolder1_lblUPI">AAA0000099</span>`))
	})

	p.mux.HandleFunc("GET /Learner/Studindexreq.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		fmt.Fprint(w, p.renderPage("<h2>Request placement</h2>"))
	})
	p.mux.HandleFunc("POST /Learner/Studindexreq.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		p.requireTokens(r)
		p.placementSaves++
		if r.PostForm.Get("ctl00$ContentPlaceHolder1$txtParentPhone") == "" {
			fmt.Fprint(w, p.renderPage("<span>Parent phone number is required.</span>"))
			return
		}
		fmt.Fprint(w, p.renderPage(`<span>Request placed successfully.</span>
<span id="ctl00_ContentPlaceHolder1_lblRequestNo">PR-2026-0042</span>`))
	})

	p.mux.HandleFunc("GET /Learner/Biodatacap.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		fmt.Fprint(w, p.renderPage("<h2>Capture biodata</h2>"))
	})
	p.mux.HandleFunc("POST /Learner/Biodatacap.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		p.requireTokens(r)

		if r.PostForm.Get("ctl00$ContentPlaceHolder1$BtnIndex") != "" {
			fmt.Fprint(w, p.renderPage("<span>Admission record loaded.</span>"))
			return
		}

		p.biodataSaves++
		ignored := r.PostForm.Get("ctl00$ContentPlaceHolder1$chkIgnore") == "on"
		if p.conflictMode == "always" || (p.conflictMode == "once" && !ignored) {
			fmt.Fprint(w, p.renderPage("<span>Duplicate index number found. Do you want to ignore and proceed?</span>"))
			return
		}
		fmt.Fprint(w, p.renderPage(`<span>Biodata captured successfully.</span>
<span id="ctl00_ContentPlaceHolder1_lblUPI">AAA0000099</span>`))
	})

	p.mux.HandleFunc("GET /Learner/StudReceive.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		fmt.Fprint(w, p.renderPage("<h2>Receive learner</h2>"))
	})
	p.mux.HandleFunc("POST /Learner/StudReceive.aspx", func(w http.ResponseWriter, r *http.Request) {
		if p.expire(w, r) {
			return
		}
		p.requireTokens(r)

		if r.PostForm.Get("ctl00$ContentPlaceHolder1$BtnSearch") != "" {
			upi := r.PostForm.Get("ctl00$ContentPlaceHolder1$txtSearchUPI")
			for _, l := range testRoster {
				if l.Upi == upi {
					fmt.Fprintf(w, "%s", p.renderPage(fmt.Sprintf("<span>%s held by Other Primary School.</span>", l.Name)))
					return
				}
			}
			fmt.Fprint(w, p.renderPage("<span>No learner found with that UPI.</span>"))
			return
		}

		p.transferReceives++
		fmt.Fprint(w, p.renderPage(`<span>Learner transferred successfully.</span>
<span id="ctl00_ContentPlaceHolder1_lblRequestNo">TR-2026-0108</span>`))
	})

	server := httptest.NewServer(p.mux)
	t.Cleanup(server.Close)
	return p, server
}

func newTestClient(t *testing.T, server *httptest.Server, opts ClientOptions) *Client {
	ctx := context.Background()
	session, err := core.NewSession(ctx, core.Options{BaseUrl: server.URL})
	require.NoError(t, err)
	require.NoError(t, session.Login(ctx, testUsername, testPassword))

	client, err := NewClient(ctx, session, opts)
	require.NoError(t, err)
	return client
}
