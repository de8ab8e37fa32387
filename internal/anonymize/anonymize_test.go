package anonymize

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIdentity(t *testing.T) {
	h := HashIdentity("alice")
	assert.Equal(t, h, HashIdentity("alice"), "same name must hash identically")
	assert.True(t, strings.HasPrefix(h, "user_"))
	assert.Len(t, h, len("user_")+8)
	assert.NotEqual(t, h, HashIdentity("bob"))
}

func TestAnonymizeTextEmptyInputs(t *testing.T) {
	hash := HashIdentity("alice")
	assert.Equal(t, "", AnonymizeText("", "alice", hash, ""))
	assert.Equal(t, "some text", AnonymizeText("some text", "", "", ""))
}

func TestAnonymizeTextBareWord(t *testing.T) {
	hash := HashIdentity("alice")

	t.Run("replaced as whole token", func(t *testing.T) {
		got := AnonymizeText("alice committed the fix", "alice", hash, "")
		assert.Equal(t, hash+" committed the fix", got)
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := AnonymizeText("Hello ALICE and Alice", "alice", hash, "")
		assert.NotContains(t, got, "ALICE")
		assert.NotContains(t, got, "Alice")
		assert.Equal(t, "Hello "+hash+" and "+hash, got)
	})

	t.Run("not replaced inside a longer word", func(t *testing.T) {
		assert.Equal(t, "malice aforethought", AnonymizeText("malice aforethought", "alice", hash, ""))
		assert.Equal(t, "alice2 spoke", AnonymizeText("alice2 spoke", "alice", hash, ""))
	})

	t.Run("underscore and hyphen are boundaries", func(t *testing.T) {
		assert.Equal(t, hash+"_work", AnonymizeText("alice_work", "alice", hash, ""))
		assert.Equal(t, "repo-"+hash+"-fork", AnonymizeText("repo-alice-fork", "alice", hash, ""))
	})

	t.Run("adjacent occurrences both replaced", func(t *testing.T) {
		got := AnonymizeText("alice alice", "alice", hash, "")
		assert.Equal(t, hash+" "+hash, got)
	})
}

func TestAnonymizeTextPaths(t *testing.T) {
	hash := HashIdentity("alice")

	got := AnonymizeText("/Users/alice/project/main.py", "alice", hash, "")
	assert.Equal(t, "/Users/"+hash+"/project/main.py", got)

	got = AnonymizeText("-Users-alice-Documents-myproject", "alice", hash, "")
	assert.Equal(t, "-Users-"+hash+"-Documents-myproject", got)
}

func TestAnonymizeTextShortUsername(t *testing.T) {
	hash := HashIdentity("ab")

	t.Run("bare word left alone", func(t *testing.T) {
		assert.Equal(t, "ab likes go", AnonymizeText("ab likes go", "ab", hash, ""))
	})

	t.Run("home-anchored occurrences replaced", func(t *testing.T) {
		assert.Equal(t, "/Users/"+hash+"/x.txt", AnonymizeText("/Users/ab/x.txt", "ab", hash, ""))
		assert.Equal(t, `C:\Users\`+hash+`\x`, AnonymizeText(`C:\Users\ab\x`, "ab", hash, ""))
		assert.Equal(t, "/home/"+hash, AnonymizeText("/home/ab", "ab", hash, ""))
		assert.Equal(t, "-Users-"+hash+"-Desktop", AnonymizeText("-Users-ab-Desktop", "ab", hash, ""))
	})

	t.Run("longer name at the anchor not clipped", func(t *testing.T) {
		assert.Equal(t, "/Users/abel/x", AnonymizeText("/Users/abel/x", "ab", hash, ""))
	})

	t.Run("custom home widens matching", func(t *testing.T) {
		got := AnonymizeText("ls /srv/builds/ab/proj", "ab", hash, "/srv/builds/ab")
		assert.Equal(t, "ls /srv/builds/"+hash+"/proj", got)

		got = AnonymizeText("cache at -srv-builds-ab-cache", "ab", hash, "/srv/builds/ab")
		assert.Equal(t, "cache at -srv-builds-"+hash+"-cache", got)
	})

	t.Run("conventional home adds no custom pattern", func(t *testing.T) {
		got := AnonymizeText("ls /srv/builds/ab/proj", "ab", hash, "/home/ab")
		assert.Equal(t, "ls /srv/builds/ab/proj", got)
	})
}

func TestEngineExtraIdentities(t *testing.T) {
	e := NewForIdentity("/home/alice", "alice", []string{"alicehub", "al", "alice", " megansmith "}, nil)

	t.Run("handles replaced case-insensitively", func(t *testing.T) {
		got := e.Text("ping AliceHub about the PR")
		assert.Equal(t, "ping "+HashIdentity("alicehub")+" about the PR", got)
	})

	t.Run("short and duplicate identities excluded", func(t *testing.T) {
		assert.Equal(t, "al wrote this", e.Text("al wrote this"))
	})

	t.Run("stripped before registration", func(t *testing.T) {
		got := e.Text("megansmith merged it")
		assert.Equal(t, HashIdentity("megansmith")+" merged it", got)
	})

	t.Run("longer identity wins over its substring", func(t *testing.T) {
		e2 := NewForIdentity("/home/alice", "alice", []string{"megan", "megansmith"}, nil)
		got := e2.Text("megansmith and megan")
		assert.Equal(t, HashIdentity("megansmith")+" and "+HashIdentity("megan"), got)
	})
}

func TestEnginePathDelegatesToText(t *testing.T) {
	e := NewForIdentity("/Users/alice", "alice", nil, nil)
	p := "/Users/alice/dev/tool.go"
	assert.Equal(t, e.Text(p), e.Path(p))
	assert.Equal(t, "/Users/"+HashIdentity("alice")+"/dev/tool.go", e.Path(p))
}

func TestPassthrough(t *testing.T) {
	var a Anonymizer = Passthrough{}
	assert.Equal(t, "/Users/alice/x", a.Path("/Users/alice/x"))
	assert.Equal(t, "alice said hi", a.Text("alice said hi"))
}

func TestEngineConcurrentUse(t *testing.T) {
	e := NewForIdentity("/Users/alice", "alice", []string{"alicehub"}, nil)
	want := e.Text("/Users/alice/dev via alicehub")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got := e.Text("/Users/alice/dev via alicehub")
				require.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}
