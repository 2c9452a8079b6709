// Package sdk provides a typed Go client for the learnroad MCP server.
//
// The client wraps mcp-go/client.CallTool with one method per MCP tool and
// retries failed calls via fortify.
//
// Usage:
//
//	transport, _ := client.NewStdioTransport("learnroad", "mcp")
//	c := sdk.NewClient(transport)
//	defer c.Close()
//
//	_, _ = c.Initialize(ctx)
//	out, _ := c.GeneratePlan(ctx, sdk.GeneratePlanRequest{Goal: "Learn Go in 3 weeks", Save: true})
//	fmt.Println(out.CurrentStep.Title)
package sdk
