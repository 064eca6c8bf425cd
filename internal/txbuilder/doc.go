package txbuilder

// Usage example (not compiled):
//
//  client, _ := ethclient.DialContext(ctx, cfg.RPC.HTTP)
//  b := txbuilder.NewBuilderFromConfig(client, cfg, logger)
//
//  res, err := b.Build(ctx, txbuilder.SwapParams{
//      Wallet:       wallet,
//      From:         "eth",
//      To:           token.Hex(),
//      FromDecimals: 18,
//      ToDecimals:   18,
//      FromQuantity: amountWei,
//  })
//  // res.Transaction is unsigned; sign and send it elsewhere
//
