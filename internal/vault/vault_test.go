package vault

import (
	"bytes"
	"testing"
)

func TestSealUnsealRoundTrip(t *testing.T) {
	v, err := Open("correct horse battery staple")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	plaintext := []byte("123456:bot-token-value")
	ciphertext, nonce, err := v.Seal(plaintext)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Fatal("ciphertext leaks plaintext")
	}

	got, err := v.Unseal(ciphertext, nonce)
	if err != nil {
		t.Fatalf("unseal: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip = %q, want %q", got, plaintext)
	}
}

func TestOpenRejectsEmptyPassphrase(t *testing.T) {
	if _, err := Open(""); err != ErrEmptyPassphrase {
		t.Fatalf("err = %v, want ErrEmptyPassphrase", err)
	}
}

func TestSamePassphraseSameKey(t *testing.T) {
	v1, err := Open("kiosk-passphrase")
	if err != nil {
		t.Fatal(err)
	}
	ciphertext, nonce, err := v1.Seal([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	v2, err := Open("kiosk-passphrase")
	if err != nil {
		t.Fatal(err)
	}
	got, err := v2.Unseal(ciphertext, nonce)
	if err != nil {
		t.Fatalf("unseal with re-derived key: %v", err)
	}
	if string(got) != "secret" {
		t.Fatalf("got %q", got)
	}
}

func TestWrongPassphraseFailsAuthentication(t *testing.T) {
	v1, _ := Open("right")
	ciphertext, nonce, err := v1.Seal([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	v2, _ := Open("wrong")
	if _, err := v2.Unseal(ciphertext, nonce); err == nil {
		t.Fatal("expected authentication failure")
	}
}

func TestNoncesAreUnique(t *testing.T) {
	v, _ := Open("p")
	_, n1, err := v.Seal([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	_, n2, err := v.Seal([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(n1, n2) {
		t.Fatal("nonce reused")
	}
}
