package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio-backend/internal/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		switch body["message"] {
		case "contact":
			w.Write([]byte(`{"aiMessage":null,"type":"contact-info","contacts":[{"name":"GitHub","url":"https://github.com/k"}],"audioUrl":null}`))
		case "limited":
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too many requests"}`))
		case "garbage":
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`<html>bad gateway</html>`))
		default:
			if r.Header.Get("Authorization") != "Bearer tok" {
				t.Errorf("Expected bearer token, got %q", r.Header.Get("Authorization"))
			}
			if body["tts"] != "true" {
				t.Errorf("Expected tts=true, got %v", body["tts"])
			}
			w.Write([]byte(`{"aiMessage":"hi","audioUrl":"data:audio/mp3;base64,SUQz"}`))
		}
	})
	mux.HandleFunc("/api/knowledge/about", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"about":"bio","links":{"github":"https://github.com/k"}}`))
	})
	mux.HandleFunc("/api/openai", func(w http.ResponseWriter, r *http.Request) {
		var req models.CompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.UserPrompt == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"OpenAI request failed"}`))
			return
		}
		json.NewEncoder(w).Encode(models.CompletionResponse{AIMessage: req.SystemPrompt + "|" + req.UserPrompt})
	})
	mux.HandleFunc("/api/tts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.SpeechResponse{AudioURL: "data:audio/mp3;base64,SUQz"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPAPI_Chat(t *testing.T) {
	srv := newTestServer(t)
	api := NewHTTPAPI(srv.URL+"/", WithToken("tok"))
	ctx := context.Background()

	reply, err := api.Chat(ctx, "hello", "true")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	text, ok := reply.(*models.TextReply)
	if !ok || text.AIMessage != "hi" || text.AudioURL == nil {
		t.Errorf("Unexpected text reply %#v", reply)
	}

	reply, err = api.Chat(ctx, "contact", "true")
	if err != nil {
		t.Fatalf("Chat contact: %v", err)
	}
	if c, ok := reply.(*models.ContactInfoReply); !ok || len(c.Contacts) != 1 {
		t.Errorf("Unexpected contact reply %#v", reply)
	}

	reply, err = api.Chat(ctx, "limited", "true")
	if err != nil {
		t.Fatalf("Chat limited: %v", err)
	}
	if e, ok := reply.(*models.ErrorReply); !ok || e.Error != "Too many requests" {
		t.Errorf("Expected error reply, got %#v", reply)
	}

	_, err = api.Chat(ctx, "garbage", "true")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected StatusError 502, got %v", err)
	}
}

func TestHTTPAPI_AboutCompleteSpeak(t *testing.T) {
	srv := newTestServer(t)
	api := NewHTTPAPI(srv.URL)
	ctx := context.Background()

	about, err := api.About(ctx)
	if err != nil {
		t.Fatalf("About: %v", err)
	}
	if about.About != "bio" || about.Links["github"] == "" {
		t.Errorf("Unexpected about %+v", about)
	}

	msg, err := api.Complete(ctx, "sys", "usr")
	if err != nil || msg != "sys|usr" {
		t.Errorf("Complete = %q, %v", msg, err)
	}

	_, err = api.Complete(ctx, "sys", "fail")
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "OpenAI request failed" {
		t.Errorf("Expected StatusError with message, got %v", err)
	}

	audio, err := api.Speak(ctx, "hello")
	if err != nil || audio == "" {
		t.Errorf("Speak = %q, %v", audio, err)
	}
}
