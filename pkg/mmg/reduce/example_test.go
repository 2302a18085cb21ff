package reduce_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/mmg/reduce"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

func Example() {
	g := mmg.New(nil)
	alice, _ := g.AddNode(mmg.Node{Key: "alice", Type: "PERSON"})
	bob, _ := g.AddNode(mmg.Node{Key: "bob", Type: "PERSON"})
	phone, _ := g.AddNode(mmg.Node{Key: "phone-1", Type: "PHONE"})
	g.AddEdge(mmg.Edge{Key: "owns-1", Type: "OWNS", From: alice, To: phone, Weight: 2})
	g.AddEdge(mmg.Edge{Key: "call-1", Type: "CALL", From: phone, To: bob, Weight: 3})

	res, err := reduce.New(g, ring.SumMax{}, reduce.Options{}).Run(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	social := res.Social()
	for _, id := range social.Edges() {
		ed, _ := social.Edge(id)
		fmt.Println(ed.Compute, ed.Weight, ed.History)
	}
	// Output:
	// C(owns-1;call-1) 5 [owns-1 call-1]
}

func ExampleReweight() {
	g := mmg.New(nil)
	alice, _ := g.AddNode(mmg.Node{Key: "alice", Type: "PERSON"})
	bob, _ := g.AddNode(mmg.Node{Key: "bob", Type: "PERSON"})
	car, _ := g.AddNode(mmg.Node{Key: "car-1", Type: "CAR"})
	g.AddEdge(mmg.Edge{Key: "drives-1", Type: "DRIVES", From: alice, To: car, Weight: 1})
	g.AddEdge(mmg.Edge{Key: "drives-2", Type: "DRIVES", From: bob, To: car, Weight: 1})

	res, _ := reduce.New(g, ring.SumMax{}, reduce.Options{}).Run(context.Background())
	changed, _ := reduce.Reweight(res, map[string]float64{"DRIVES": 2.5})
	for _, ed := range res.Edges() {
		fmt.Println(changed, ed.Weight)
	}
	// Output:
	// 1 5
}
