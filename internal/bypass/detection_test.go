package bypass

import (
	"net/http"
	"testing"
)

func TestDetectCloudflare(t *testing.T) {
	res := Response{
		StatusCode: 200,
		Header:     http.Header{"Server": {"nginx"}},
		Body:       []byte("OK"),
	}
	if detected, _ := detectCloudflare(res); detected {
		t.Errorf("expected not detected")
	}

	res = Response{
		StatusCode: 403,
		Header:     http.Header{"Server": {"cloudflare"}},
		Body:       []byte("Access Denied"),
	}
	if detected, src := detectCloudflare(res); !detected || src != "Cloudflare" {
		t.Errorf("expected Cloudflare detection by header")
	}

	res = Response{
		StatusCode: 503,
		Header:     http.Header{},
		Body:       []byte("<html>... cf-turnstile ...</html>"),
	}
	if detected, src := detectCloudflare(res); !detected || src != "Cloudflare" {
		t.Errorf("expected Cloudflare detection by body")
	}
}

func TestDetectAkamai(t *testing.T) {
	res := Response{
		StatusCode: 403,
		Header:     http.Header{"Server": {"AkamaiGHost"}},
	}
	if detected, src := detectAkamai(res); !detected || src != "Akamai" {
		t.Errorf("expected Akamai detection by header")
	}

	res = Response{
		StatusCode: 403,
		Header:     http.Header{},
		Body:       []byte("Access Denied... Reference #123.456"),
	}
	if detected, src := detectAkamai(res); !detected || src != "Akamai" {
		t.Errorf("expected Akamai detection by body")
	}
}

func TestDetectDataDome(t *testing.T) {
	res := Response{
		StatusCode: 403,
		Header:     http.Header{"X-Datadome": {"protected"}},
	}
	if detected, src := detectDataDome(res); !detected || src != "DataDome" {
		t.Errorf("expected DataDome detection by header")
	}
}

func TestDetectPerimeterX(t *testing.T) {
	res := Response{
		StatusCode: 403,
		Header:     http.Header{},
		Body:       []byte(`<div id="px-captcha"></div>`),
	}
	if detected, src := detectPerimeterX(res); !detected || src != "PerimeterX" {
		t.Errorf("expected PerimeterX detection by body")
	}
}

func TestDetectGoogleSorry(t *testing.T) {
	res := Response{
		URL:        "https://www.google.com/sorry/index?continue=https://www.google.com/search",
		StatusCode: 429,
	}
	if detected, src := detectGoogleSorry(res); !detected || src != "Google" {
		t.Errorf("expected Google detection by url")
	}

	res = Response{
		URL:        "https://www.google.com/search?q=realtors",
		StatusCode: 200,
		Body:       []byte("<p>Our systems have detected unusual traffic from your computer network.</p>"),
	}
	if detected, src := detectGoogleSorry(res); !detected || src != "Google" {
		t.Errorf("expected Google detection by body")
	}

	res = Response{
		URL:        "https://www.google.com/search?q=realtors",
		StatusCode: 200,
		Body:       []byte(`<div class="g"><a href="https://agent.com"><h3>Agent</h3></a></div>`),
	}
	if detected, _ := detectGoogleSorry(res); detected {
		t.Errorf("expected normal results page not to be detected")
	}
}

func TestAnalyze(t *testing.T) {
	res := Response{
		StatusCode: 403,
		Header:     http.Header{"Server": {"cloudflare"}},
	}
	detected, src := Analyze(res, DefaultDetectors())
	if !detected || src != "Cloudflare" {
		t.Errorf("expected Cloudflare, got %v %q", detected, src)
	}

	detected, src = Analyze(Response{StatusCode: 200, Header: http.Header{}}, DefaultDetectors())
	if detected || src != "" {
		t.Errorf("expected no detection, got %v %q", detected, src)
	}
}
