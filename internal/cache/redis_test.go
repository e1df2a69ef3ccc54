package cache

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeRedis is a single-threaded RESP server backed by a map, enough to
// exercise RedisClient.
type fakeRedis struct {
	listener net.Listener
	mu       sync.Mutex
	data     map[string]string
	commands []string
}

func startFakeRedis(t *testing.T) *fakeRedis {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &fakeRedis{listener: listener, data: map[string]string{}}
	go srv.serve()
	t.Cleanup(func() { _ = listener.Close() })
	return srv
}

func (s *fakeRedis) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeRedis) handle(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		req, err := readResponse(reader)
		if err != nil {
			return
		}
		items, ok := req.([]interface{})
		if !ok {
			return
		}
		args := make([]string, len(items))
		for i, item := range items {
			args[i] = string(item.([]byte))
		}
		if _, err := conn.Write([]byte(s.exec(args))); err != nil {
			return
		}
	}
}

func (s *fakeRedis) exec(args []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := strings.ToUpper(args[0])
	s.commands = append(s.commands, cmd)

	switch cmd {
	case "SET":
		s.data[args[1]] = args[2]
		return "+OK\r\n"
	case "GET":
		value, ok := s.data[args[1]]
		if !ok {
			return "$-1\r\n"
		}
		return bulk(value)
	case "DEL":
		removed := 0
		for _, key := range args[1:] {
			if _, ok := s.data[key]; ok {
				delete(s.data, key)
				removed++
			}
		}
		return fmt.Sprintf(":%d\r\n", removed)
	case "INCR":
		n, _ := strconv.Atoi(s.data[args[1]])
		n++
		s.data[args[1]] = strconv.Itoa(n)
		return fmt.Sprintf(":%d\r\n", n)
	case "PEXPIRE":
		return ":1\r\n"
	case "PTTL":
		return ":60000\r\n"
	case "SCAN":
		pattern := args[3]
		var keys []string
		for key := range s.data {
			if ok, _ := path.Match(pattern, key); ok {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("*2\r\n")
		b.WriteString(bulk("0"))
		b.WriteString(fmt.Sprintf("*%d\r\n", len(keys)))
		for _, key := range keys {
			b.WriteString(bulk(key))
		}
		return b.String()
	default:
		return "-ERR unknown command '" + cmd + "'\r\n"
	}
}

func (s *fakeRedis) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func bulk(value string) string {
	return fmt.Sprintf("$%d\r\n%s\r\n", len(value), value)
}

func TestRedisClientSetGetDelete(t *testing.T) {
	srv := startFakeRedis(t)
	client, err := NewRedisClient(RedisConfig{Address: srv.listener.Addr().String(), Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "posts:list:abc", []byte("value\r\nwith crlf"), time.Minute))
	require.Equal(t, []string{"postboard:posts:list:abc"}, srv.keys())

	got, ok, err := client.Get(ctx, "posts:list:abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value\r\nwith crlf", string(got))

	require.NoError(t, client.Delete(ctx, "posts:list:abc"))
	_, ok, err = client.Get(ctx, "posts:list:abc")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisClientDeletePrefix(t *testing.T) {
	srv := startFakeRedis(t)
	client, err := NewRedisClient(RedisConfig{Address: srv.listener.Addr().String(), Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "posts:list:1", []byte("1"), time.Minute))
	require.NoError(t, client.Set(ctx, "posts:list:2", []byte("2"), time.Minute))
	require.NoError(t, client.Set(ctx, "ratelimit:login:x", []byte("3"), time.Minute))

	require.NoError(t, client.DeletePrefix(ctx, "posts:list:"))
	require.Equal(t, []string{"postboard:ratelimit:login:x"}, srv.keys())
}

func TestRedisClientIncrementWithTTL(t *testing.T) {
	srv := startFakeRedis(t)
	client, err := NewRedisClient(RedisConfig{Address: srv.listener.Addr().String(), Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	count, ttl, err := client.IncrementWithTTL(ctx, "ratelimit:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, time.Minute, ttl)

	count, _, err = client.IncrementWithTTL(ctx, "ratelimit:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestRedisClientRequiresAddress(t *testing.T) {
	_, err := NewRedisClient(RedisConfig{})
	require.Error(t, err)
}

func TestEscapeGlob(t *testing.T) {
	require.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
}
