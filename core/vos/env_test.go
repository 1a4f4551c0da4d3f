package vos_test

import (
	"fmt"

	"github.com/josephlewis42/clam/core/vos"
)

func ExampleCopyEnv() {
	src := vos.NewMapEnvFromEnvList([]string{"A=B", "C=D"})
	dst := vos.NewMapEnvFromEnvList([]string{"A=old", "Z=1"})
	vos.CopyEnv(dst, src)

	fmt.Printf("Environ(): %q\n", dst.Environ())

	// Output: Environ(): ["A=B" "C=D" "Z=1"]
}

func ExampleNewMapEnvFromEnvList() {
	env := vos.NewMapEnvFromEnvList([]string{"F=G=H", "C=D", "E", "A=B", "C=last"})

	fmt.Printf("Environ(): %q\n", env.Environ())
	fmt.Printf("Getenv(\"F\"): %q\n", env.Getenv("F"))
	fmt.Printf("Len(): %d\n", env.Len())

	// Output: Environ(): ["A=B" "C=last" "E=" "F=G=H"]
	// Getenv("F"): "G=H"
	// Len(): 4
}

func ExampleSplitEnv() {
	for _, entry := range []string{"PATH=/bin", "EMPTY=", "BARE", "EQ=a=b"} {
		key, value := vos.SplitEnv(entry)
		fmt.Printf("%q %q\n", key, value)
	}

	// Output: "PATH" "/bin"
	// "EMPTY" ""
	// "BARE" ""
	// "EQ" "a=b"
}

func ExampleMapEnv_Unsetenv() {
	env := vos.NewMapEnv()
	env.Setenv("A", "B")
	env.Setenv("C", "D")

	fmt.Println("Before:", env.Environ())
	env.Unsetenv("A")
	fmt.Println("After:", env.Environ())

	// Output: Before: [A=B C=D]
	// After: [C=D]
}

func ExampleMapEnv_LookupEnv() {
	env := vos.NewMapEnv()
	env.Setenv("A", "B")
	env.Setenv("EMPTY", "")

	val, ok := env.LookupEnv("A")
	fmt.Println("Existing", "val:", val, "ok:", ok)
	val, ok = env.LookupEnv("EMPTY")
	fmt.Printf("Empty val: %q ok: %v\n", val, ok)
	val, ok = env.LookupEnv("B")
	fmt.Println("Missing", "val:", val, "ok:", ok)

	// Output: Existing val: B ok: true
	// Empty val: "" ok: true
	// Missing val:  ok: false
}

func ExampleMapEnv_Clearenv() {
	env := vos.NewMapEnvFromEnvList([]string{"A=B", "C=D"})
	env.Clearenv()

	fmt.Println(env.Len(), env.Environ())

	// Output: 0 []
}
